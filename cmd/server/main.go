package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"practiceops/internal/attendance"
	"practiceops/internal/escalation"
	"practiceops/internal/kpi"
	"practiceops/internal/leave"
	"practiceops/internal/platform/config"
	"practiceops/internal/platform/httpserver"
	"practiceops/internal/platform/logger"
	platformredis "practiceops/internal/platform/redis"
	"practiceops/internal/recognition"
	"practiceops/internal/schedule"
	"practiceops/internal/staff"
	"practiceops/internal/tasks"
	"practiceops/internal/timeline"
	httptransport "practiceops/internal/transport/http"
	"practiceops/internal/warning"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/audit/publisher"
	auditmem "practiceops/pkg/platform/audit/store/memory"
	auditpg "practiceops/pkg/platform/audit/store/postgres"
	"practiceops/pkg/platform/audit/worker"
	"practiceops/pkg/platform/keylock"
	"practiceops/pkg/platform/metrics"
	"practiceops/pkg/platform/tx"
)

// main wires stores, services, and the rules engine, then runs the HTTP
// server until a signal arrives. Without DATABASE_URL everything runs on
// in-memory stores, which is the development mode.
func main() {
	cfg := config.Load()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		db     *sql.DB
		runner tx.Runner = tx.NopRunner{}
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		runner = tx.SQLRunner{DB: db}
		log.Info("connected to postgres")
	}

	var auditStore audit.Store
	if db != nil {
		auditStore = auditpg.New(db)
	} else {
		auditStore = auditmem.New()
	}

	g, ctx := errgroup.WithContext(ctx)

	recorderOpts := []audit.RecorderOption{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := publisher.NewKafka(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		drain := worker.New(kafka, 256, log)
		recorderOpts = append(recorderOpts, audit.WithSink(drain))
		g.Go(func() error {
			if err := drain.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("audit entries mirrored to kafka", "topic", cfg.AuditTopic)
	}
	recorder := audit.NewRecorder(auditStore, recorderOpts...)

	var watermarks escalation.WatermarkStore = escalation.NewInMemoryWatermarks()
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		watermarks = escalation.NewFallbackWatermarks(
			escalation.NewRedisWatermarks(redisClient.Client), log)
		log.Info("escalation watermarks stored in redis")
	}

	var (
		leaveStore       leave.Store       = leave.NewInMemoryStore()
		scheduleStore    schedule.Store    = schedule.NewInMemoryStore()
		kpiStore         kpi.Store         = kpi.NewInMemoryStore()
		warningStore     warning.Store     = warning.NewInMemoryStore()
		attendanceStore  attendance.Store  = attendance.NewInMemoryStore()
		taskStore        tasks.Store       = tasks.NewInMemoryStore()
		recognitionStore recognition.Store = recognition.NewInMemoryStore()
		directory        staff.Directory   = staff.NewInMemoryDirectory()
	)
	if db != nil {
		leaveStore = leave.NewPostgresStore(db)
		scheduleStore = schedule.NewPostgresStore(db)
		kpiStore = kpi.NewPostgresStore(db)
		warningStore = warning.NewPostgresStore(db)
		attendanceStore = attendance.NewPostgresStore(db)
		taskStore = tasks.NewPostgresStore(db)
		recognitionStore = recognition.NewPostgresStore(db)
		directory = staff.NewPostgresDirectory(db)
	}

	// Leave, schedule, and the escalation engine share one lock set: a leave
	// decision and an assignment for the same staff member serialize against
	// each other, and rule evaluations serialize per (staff, rule).
	locks := keylock.New()

	leaves := leave.NewService(leaveStore, recorder, locks, runner, m, log)
	schedules := schedule.NewService(scheduleStore, leaves, recorder, locks, runner, m, log)
	kpis := kpi.NewService(kpiStore, directory, recorder, runner, m, log, cfg.Rules.KPIPassingThreshold)
	warnings := warning.NewService(warningStore, recorder, runner, m, log)
	attendances := attendance.NewService(attendanceStore, recorder, runner, log)
	taskEvents := tasks.NewService(taskStore, recorder, runner, log)
	recognitions := recognition.NewService(recognitionStore, recorder, runner, log)
	timelines := timeline.NewService(warnings, recognitions, taskEvents, leaves, kpis)

	engine := escalation.NewEngine(
		escalation.Config{
			LatenessCount:    cfg.Rules.LatenessCount,
			OverdueTaskCount: cfg.Rules.OverdueTaskCount,
			KPIThreshold:     cfg.Rules.KPIPassingThreshold,
		},
		watermarks, locks, warnings, attendances, taskEvents, kpis, recognitions, log,
	)
	attendances.AddListener(engine)
	taskEvents.AddListener(engine)
	kpis.AddCloseListener(engine)

	router := httptransport.NewRouter(httptransport.Deps{
		Leave:         leaves,
		Schedule:      schedules,
		KPI:           kpis,
		Warnings:      warnings,
		Attendance:    attendances,
		Tasks:         taskEvents,
		Recognition:   recognitions,
		Timeline:      timelines,
		Audit:         recorder,
		JWTSigningKey: []byte(cfg.JWTSigningKey),
		Logger:        log,
	})

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error {
		log.Info("practiceops listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
