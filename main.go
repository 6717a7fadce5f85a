//go:build !(js && wasm)

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/voxelsplace/svo/internal/config"
	"github.com/voxelsplace/svo/internal/logger"
	"github.com/voxelsplace/svo/utils"
)

func usage() {
	fmt.Println("Usage: svotool [flags] <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  voxelize output.svo input1.glb [input2.glb ...]  (voxelize glTF models into one octree)")
	fmt.Println("  sphere output.svo radius [count [seed]]          (voxelize a generated sphere scene)")
	fmt.Println("  info input.svo                                   (print header and node counts)")
	fmt.Println("  find input.svo x y z                             (print the leaf at a point and its free neighbours)")
	fmt.Println("  svo2glb input.svo output.glb [solid|empty]       (render leaves as boxes)")
	fmt.Println("  config [output.yaml|output.toml]                 (print or save the effective config)")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func fail(err error) {
	fmt.Println("Error:", err)
	os.Exit(1)
}

func parseFloats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fail(err)
	}
	logOpts := cfg.LoggerOptions()
	logOpts.Console = os.Stderr
	log, err := logger.New(logOpts)
	if err != nil {
		fail(err)
	}
	defer log.Sync()

	if err := run(args, cfg, log); err != nil {
		log.Error("command failed", zap.String("command", args[0]), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(args []string, cfg *config.Config, log *zap.Logger) error {
	switch args[0] {
	case "voxelize":
		if len(args) < 3 {
			usage()
			os.Exit(1)
		}
		return utils.RunVoxelize(args[1], args[2:], cfg, log)
	case "sphere":
		if len(args) < 3 || len(args) > 5 {
			usage()
			os.Exit(1)
		}
		radius, err := parseFloats(args[2:3])
		if err != nil {
			return err
		}
		count, seed := 1, int64(1)
		if len(args) > 3 {
			if count, err = strconv.Atoi(args[3]); err != nil {
				return fmt.Errorf("invalid count %q", args[3])
			}
		}
		if len(args) > 4 {
			if seed, err = strconv.ParseInt(args[4], 10, 64); err != nil {
				return fmt.Errorf("invalid seed %q", args[4])
			}
		}
		return utils.RunSpheres(args[1], count, radius[0], seed, cfg, log)
	case "info":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		return utils.RunInfo(os.Stdout, args[1])
	case "find":
		if len(args) != 5 {
			usage()
			os.Exit(1)
		}
		p, err := parseFloats(args[2:5])
		if err != nil {
			return err
		}
		return utils.RunFind(os.Stdout, args[1], mgl32.Vec3{p[0], p[1], p[2]})
	case "svo2glb":
		if len(args) != 3 && len(args) != 4 {
			usage()
			os.Exit(1)
		}
		state := "solid"
		if len(args) == 4 {
			state = args[3]
		}
		return utils.RunSVO2GLB(args[1], args[2], state)
	case "config":
		if len(args) == 2 {
			return cfg.SaveTo(args[1])
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		usage()
		os.Exit(1)
	}
	return nil
}
