//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/voxelsplace/svo/api"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	uint8arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(uint8arr, b)
	return uint8arr
}

// jsonToJS hands structured results to JS as parsed objects.
func jsonToJS(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

// voxelizeGlbs(files, voxelSize, maxDepth?, connectivity?, compression?)
// takes an object mapping names to Uint8Arrays and returns .svo bytes.
func voxelizeGlbs(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("missing files object or voxel size")
	}
	filesObj := args[0]
	files := map[string][]byte{}
	keys := js.Global().Get("Object").Call("keys", filesObj)
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		files[k] = bytesFromJS(filesObj.Get(k))
	}
	p := api.BuildParams{VoxelSize: float32(args[1].Float())}
	if len(args) > 2 && args[2].Type() == js.TypeNumber {
		p.MaxDepth = uint8(args[2].Int())
	}
	if len(args) > 3 && args[3].Type() == js.TypeString {
		p.Connectivity = args[3].String()
	}
	if len(args) > 4 && args[4].Type() == js.TypeString {
		p.Compression = args[4].String()
	}
	out, err := api.VoxelizeGLBs(files, p)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

// svo2glb(svoBytes, state?) renders solid (default) or empty leaves.
func svo2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing svo bytes")
	}
	state := "solid"
	if len(args) > 1 && args[1].Type() == js.TypeString {
		state = args[1].String()
	}
	out, err := api.SVOToGLB(bytesFromJS(args[0]), state)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func svoInfo(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing svo bytes")
	}
	info, err := api.SVOInfo(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return jsonToJS(info)
}

// svoFind(svoBytes, x, y, z) returns the leaf at the point or null.
func svoFind(this js.Value, args []js.Value) any {
	if len(args) < 4 {
		return js.ValueOf("missing svo bytes or coordinates")
	}
	info, ok, err := api.FindNode(bytesFromJS(args[0]),
		float32(args[1].Float()), float32(args[2].Float()), float32(args[3].Float()))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	if !ok {
		return js.Null()
	}
	return jsonToJS(info)
}

func main() {
	js.Global().Set("voxelizeGlbs", js.FuncOf(voxelizeGlbs))
	js.Global().Set("svo2glb", js.FuncOf(svo2glb))
	js.Global().Set("svoInfo", js.FuncOf(svoInfo))
	js.Global().Set("svoFind", js.FuncOf(svoFind))
	select {}
}
