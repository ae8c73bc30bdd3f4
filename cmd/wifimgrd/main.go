package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wifimgr/internal/dbusapi"
	"wifimgr/internal/ipadapter"
	"wifimgr/internal/ipadapter/fakeadapter"
	"wifimgr/internal/ipadapter/linuxadapter"
	"wifimgr/internal/logging"
	"wifimgr/internal/nvs"
	"wifimgr/internal/radio"
	"wifimgr/internal/radio/fakedriver"
	"wifimgr/internal/radio/iwddriver"
	"wifimgr/internal/wmngr"
)

var (
	busType  = flag.String("bus", "system", "D-Bus bus type: session or system")
	debug    = flag.Bool("debug", false, "Enable debug logging")
	dataDir  = flag.String("data-dir", "/var/lib/wifimgr", "directory holding the persisted configuration store")
	dispatch = flag.String("dispatch", "task", "state machine dispatch policy: task or timer")
	fake     = flag.Bool("fake", false, "use the in-memory fake radio/IP backends instead of iwd/rtnetlink")
)

func main() {
	flag.Parse()

	log := logging.New("wifimgrd", *debug)
	defer log.Sync()

	log.Infow("wifimgrd starting", "bus", *busType, "dispatch", *dispatch, "fake", *fake, "debug", *debug)

	store, err := nvs.Open(*dataDir + "/wifimgr.db")
	if err != nil {
		log.Fatalw("open nvs store failed", "err", err)
	}
	defer store.Close()

	var radioDrv radio.Driver
	var ipAdapt ipadapter.Adapter
	if *fake {
		radioDrv = fakedriver.New()
		ipAdapt = fakeadapter.New()
	} else {
		radioDrv, err = iwddriver.New(log)
		if err != nil {
			log.Fatalw("iwd driver init failed", "err", err)
		}
		la, err := linuxadapter.New(log)
		if err != nil {
			log.Fatalw("linux ip adapter init failed", "err", err)
		}
		defer la.Close()
		ipAdapt = la
	}

	policy := wmngr.DispatchTask
	if *dispatch == "timer" {
		policy = wmngr.DispatchTimer
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr, err := wmngr.Init(ctx, radioDrv, ipAdapt, store, policy, log)
	if err != nil {
		log.Fatalw("wmngr init failed", "err", err)
	}

	svc, err := dbusapi.NewService(*busType, mgr, log)
	if err != nil {
		log.Fatalw("dbus service init failed", "err", err)
	}
	defer svc.Close()
	log.Infow("dbus service registered", "name", dbusapi.ServiceName)

	stopDiag := make(chan struct{})
	go diagnosticsLoop(svc, stopDiag)
	defer close(stopDiag)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Infow("wifimgrd ready")
	<-sigCh
	log.Infow("shutting down")
}

// diagnosticsLoop periodically republishes the State/IsConnected
// properties over D-Bus. wmngr exposes no change-notification hook of
// its own (its public getters are lock-free reads, spec.md §4.5), so
// polling is the simplest substitute for the teacher's onChange
// callback.
func diagnosticsLoop(svc *dbusapi.Service, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			svc.EmitStateChanged()
		}
	}
}
