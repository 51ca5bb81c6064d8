package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tu-usuario/taller-pro/internal/gateway"
	infrapdf "github.com/tu-usuario/taller-pro/internal/infrastructure/pdf"
	httpRouter "github.com/tu-usuario/taller-pro/internal/interfaces/http"
	"github.com/tu-usuario/taller-pro/internal/notify"
	"github.com/tu-usuario/taller-pro/internal/session"
	"github.com/tu-usuario/taller-pro/internal/store/inventory"
	"github.com/tu-usuario/taller-pro/internal/store/sales"
	"github.com/tu-usuario/taller-pro/pkg/config"
	"github.com/tu-usuario/taller-pro/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("backend", cfg.Backend.BaseURL).
		Msg("iniciando aplicación")

	// Puente de notificaciones: instancia única inyectada por referencia a
	// los stores (sustituye al hook global de la UI original).
	bridge := notify.NewBridge()

	sessionStore := session.NewStore(cfg.Session.File)
	gw := gateway.NewClient(cfg.Backend.BaseURL, sessionStore, bridge, log)

	inventoryStore := inventory.NewStore(gw, bridge, log)
	salesLedger := sales.NewLedger(
		gw,
		inventoryStore, // SnapshotProvider
		inventoryStore, // Mutator
		inventoryStore, // Resyncer
		sessionStore,
		bridge,
		log,
	)
	receipts := infrapdf.NewReceiptGenerator(cfg.App.Name)

	// Precarga del snapshot si ya hay sesión persistida; los fallos por
	// fuente quedan aislados dentro de FetchAll.
	if sessionStore.Authenticated() {
		inventoryStore.FetchAll(context.Background())
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "TallerPro API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Inventory: inventoryStore,
		Sales:     salesLedger,
		Session:   sessionStore,
		Bridge:    bridge,
		Receipts:  receipts,
		Log:       log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
