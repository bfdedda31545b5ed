package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"investment-platform/internal/auth"
	"investment-platform/internal/blockchain"
	"investment-platform/internal/cache"
	"investment-platform/internal/config"
	"investment-platform/internal/database"
	"investment-platform/internal/handlers"
	"investment-platform/internal/jobs"
	"investment-platform/internal/logger"
	"investment-platform/internal/notify"
	"investment-platform/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	_, syncLogger := logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer syncLogger()

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret, cfg.App.JWTTTL)

	// Connect to database
	if err := database.Connect(cfg.Database.Driver, cfg.GetDSN()); err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	db := database.GetDB()

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		zap.L().Fatal("Failed to run migrations", zap.Error(err))
	}

	catalogCache, err := cache.New(cfg.App.PlanCacheTTL)
	if err != nil {
		zap.L().Fatal("Failed to create cache", zap.Error(err))
	}

	addresses, err := blockchain.NewAddressGenerator(cfg.Wallet.Mnemonic)
	if err != nil {
		zap.L().Fatal("Failed to initialize address generator", zap.Error(err))
	}
	if addresses.Simulated() {
		zap.L().Warn("WALLET_MNEMONIC not set, deposit addresses are simulated")
	}

	var chain services.ChainReader
	if cfg.Wallet.SolanaRPCURL != "" {
		chain = blockchain.NewSolanaClient(cfg.Wallet.SolanaRPCURL)
	}

	notifier, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
	if err != nil {
		zap.L().Warn("Telegram notifications disabled", zap.Error(err))
		notifier = notify.Nop{}
	}

	// Initialize services
	rewardService := services.NewRewardService(db)
	settingService := services.NewReferralSettingService(db, catalogCache)
	referralService := services.NewReferralService(db, rewardService, settingService)
	authService := services.NewAuthService(db, referralService)
	userService := services.NewUserService(db)
	adminService := services.NewAdminService(db)
	planService := services.NewPlanService(db, catalogCache)
	investmentService := services.NewInvestmentService(db, rewardService, referralService)
	transactionService := services.NewTransactionService(db, cfg.App.AutoCompleteDeposits)
	walletService := services.NewWalletService(db, addresses, chain, notifier)
	dashboardService := services.NewDashboardService(db, rewardService, referralService)

	ctx := context.Background()

	if _, err := walletService.LoadAssets(ctx, cfg.Wallet.AssetsFile); err != nil {
		zap.L().Fatal("Failed to load asset catalog", zap.String("file", cfg.Wallet.AssetsFile), zap.Error(err))
	}

	if cfg.App.BootstrapSuperadminMail != "" {
		if err := adminService.PromoteSuperadmin(ctx, cfg.App.BootstrapSuperadminMail); err != nil {
			zap.L().Warn("Failed to promote bootstrap superadmin",
				zap.String("email", cfg.App.BootstrapSuperadminMail), zap.Error(err))
		}
	}

	// Start background jobs
	var maturityJob *jobs.MaturityJob
	if cfg.Jobs.MaturityInterval > 0 {
		maturityJob = jobs.NewMaturityJob(investmentService, cfg.Jobs.MaturityInterval)
		go maturityJob.Start()
	}

	// Initialize handlers
	h := handlers.Handlers{
		Auth:        handlers.NewAuthHandler(authService, userService),
		User:        handlers.NewUserHandler(userService, adminService, dashboardService),
		Plan:        handlers.NewPlanHandler(planService, adminService),
		Investment:  handlers.NewInvestmentHandler(investmentService, adminService),
		Transaction: handlers.NewTransactionHandler(transactionService, adminService),
		Reward:      handlers.NewRewardHandler(rewardService, adminService),
		Referral:    handlers.NewReferralHandler(referralService, settingService, adminService),
		Wallet:      handlers.NewWalletHandler(walletService, adminService),
		Admin:       handlers.NewAdminHandler(adminService),
	}
	if cfg.Jobs.DashboardPushInterval > 0 {
		h.Dashboard = handlers.NewDashboardSocket(dashboardService, userService,
			cfg.Jobs.DashboardPushInterval, cfg.Server.FrontendURL)
	}

	router := handlers.NewRouter(h, userService, cfg.Server.FrontendURL)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("Shutting down server...")

	if maturityJob != nil {
		maturityJob.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exited")
}
