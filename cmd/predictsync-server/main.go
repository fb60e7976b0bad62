package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	l4g "github.com/alecthomas/log4go"

	"github.com/pulsegrid/predictsync/cmd/predictsync-server/api"
	"github.com/pulsegrid/predictsync/config"
	"github.com/pulsegrid/predictsync/logic"
	"github.com/pulsegrid/predictsync/pkg/auth"
	"github.com/pulsegrid/predictsync/pkg/dashboard"
	"github.com/pulsegrid/predictsync/pkg/demo"
	"github.com/pulsegrid/predictsync/pkg/log4gox"
	"github.com/pulsegrid/predictsync/pkg/predict"
	"github.com/pulsegrid/predictsync/pkg/sim"
	"github.com/pulsegrid/predictsync/server"
	"github.com/pulsegrid/predictsync/util"
)

var (
	configFile = flag.String("config", "", "xml config file; defaults are used if empty")
	debugLog   = flag.Bool("log", true, "debug log")
)

func main() {
	flag.Parse()

	l4g.Close()
	l4g.AddFilter("debug logger", l4g.DEBUG, log4gox.NewColorConsoleLogWriter())

	if *configFile != "" {
		if err := config.LoadConfig(*configFile); err != nil {
			l4g.Error("[main] load config %s: %v", *configFile, err)
		}
	} else {
		config.Cfg = config.Default()
	}
	cfg := config.Cfg

	issuer := auth.NewIssuer(cfg.JWTSecret)
	roomMgr := logic.NewRoomManager(cfg.ClockOptions(), cfg.PredictOptions(), demoSimulatorFactory, demo.Codec{}, cfg.InputRatePerSecond, cfg.InputBurst)

	dashHub := dashboard.NewHub()
	roomMgr.SetDashboard(dashHub)

	s, err := server.New(cfg.UDPAddress, roomMgr, issuer)
	if err != nil {
		panic(err)
	}
	_ = api.NewWebAPI(cfg.WebAddress, roomMgr, dashHub, issuer)

	l4g.Info("[main] udp=%s web=%s local_ip=%s", cfg.UDPAddress, cfg.WebAddress, util.GetLocalIP())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, os.Interrupt)
	statusTicker := time.NewTicker(time.Minute)
	defer statusTicker.Stop()

	l4g.Info("[main] start...")
QUIT:
	for {
		select {
		case sig := <-sigs:
			l4g.Info("[main] signal: %s", sig.String())
			break QUIT
		case <-statusTicker.C:
			fmt.Println("rooms:", roomMgr.RoomNum(), "connections:", s.TotalConnections())
		}
	}
	l4g.Info("[main] quitting...")
	s.Stop()
}

// demoSimulatorFactory builds this process's demonstration Simulator. A
// real deployment supplies its own room.SimulatorFactory driving its own
// game state instead.
func demoSimulatorFactory(_ predict.Identity) sim.Simulator {
	return demo.NewMover(4.0)
}
