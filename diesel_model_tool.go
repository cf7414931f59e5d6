package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mogaika/diesel_model_tool/config"
	"github.com/mogaika/diesel_model_tool/utils"
)

func main() {
	var configPath, logLevel string
	actions := make([]Action, 0)

	flag.StringVar(&configPath, "config", "", "Path to yaml config file")
	flag.StringVar(&logLevel, "log_level", "", "Override logging level (debug, info, warn, error)")
	flag.BoolFunc("new", "Start with an empty document", func(string) error {
		actions = append(actions, Action{Name: "new"})
		return nil
	})
	flag.Func("load", "Load yaml model document", actionFlag(&actions, "load"))
	flag.Func("save", "Save current document as yaml", actionFlag(&actions, "save"))
	flag.Func("root_point", "Object new imported models and bones are attached to", actionFlag(&actions, "root_point"))
	flag.Func("import", "Import .gltf or .glb file into the current document", actionFlag(&actions, "import"))
	flag.Func("format", "Export format for paths without known extension: fbx, glb or gltf", actionFlag(&actions, "format"))
	flag.Func("export", "Export current document to .fbx, .glb or .gltf", actionFlag(&actions, "export"))
	flag.Func("batch", "Run actions from a yaml list of {action, arg}", actionFlag(&actions, "batch"))
	flag.Func("write_config", "Save the effective config as yaml", actionFlag(&actions, "write_config"))
	flag.Func("serve", "Start conversion web server on address (empty for config value)", actionFlag(&actions, "serve"))
	flag.BoolFunc("dump", "Print current document", func(string) error {
		actions = append(actions, Action{Name: "dump"})
		return nil
	})
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		printActionUsage(flag.CommandLine.Output())
	}
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		log.Fatal(err)
	}
	defer utils.SyncLogger()

	if err := cfg.Apply(); err != nil {
		utils.Log.Fatal(err)
	}

	if len(actions) == 0 {
		flag.Usage()
		return
	}

	if err := newSession(cfg).run(actions, false); err != nil {
		utils.Log.Errorf("%+v", err)
		utils.SyncLogger()
		os.Exit(1)
	}
}
