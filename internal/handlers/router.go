package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"investment-platform/internal/auth"
	"investment-platform/internal/logger"
	"investment-platform/internal/models"
)

// Handlers groups every HTTP handler the API serves
type Handlers struct {
	Auth        *AuthHandler
	User        *UserHandler
	Plan        *PlanHandler
	Investment  *InvestmentHandler
	Transaction *TransactionHandler
	Reward      *RewardHandler
	Referral    *ReferralHandler
	Wallet      *WalletHandler
	Admin       *AdminHandler
	Dashboard   *DashboardSocket
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// NewRouter wires middleware and routes
func NewRouter(h Handlers, active auth.ActiveChecker, frontendURL string) *gin.Engine {
	router := gin.New()
	router.Use(logger.GinMiddleware(), logger.GinRecovery())

	origins := append([]string{}, defaultOrigins...)
	if frontendURL != "" {
		origins = append(origins, frontendURL)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/investment-plans", h.Plan.ListPlans)
	api.GET("/investment-plans/:id", h.Plan.GetPlan)
	api.GET("/rewards/catalog", h.Reward.GetCatalog)
	api.GET("/wallet/assets", h.Wallet.ListAssets)
	api.GET("/referral-settings/active", h.Referral.GetActiveSetting)

	// WebSocket authenticates itself because browsers cannot send headers on upgrade
	if h.Dashboard != nil {
		api.GET("/users/dashboard/ws", h.Dashboard.Serve)
	}

	protected := api.Group("")
	protected.Use(auth.AuthMiddleware(), auth.RequireActive(active))
	{
		protected.GET("/auth/me", h.Auth.GetMe)

		users := protected.Group("/users")
		{
			users.GET("/profile", h.User.GetProfile)
			users.PUT("/profile", h.User.UpdateProfile)
			users.PUT("/password", h.User.ChangePassword)
			users.GET("/dashboard", h.User.GetDashboard)
		}

		investments := protected.Group("/investments")
		{
			investments.POST("", h.Investment.CreateInvestment)
			investments.GET("", h.Investment.GetMyInvestments)
			investments.GET("/:id", h.Investment.GetInvestment)
		}

		transactions := protected.Group("/transactions")
		{
			transactions.POST("/deposit", h.Transaction.Deposit)
			transactions.POST("/withdraw", h.Transaction.Withdraw)
			transactions.GET("", h.Transaction.GetMyTransactions)
			transactions.GET("/summary", h.Transaction.GetMySummary)
			transactions.GET("/:id", h.Transaction.GetTransaction)
			transactions.POST("/:id/cancel", h.Transaction.CancelTransaction)
		}

		rewards := protected.Group("/rewards")
		{
			rewards.GET("", h.Reward.GetMyRewards)
			rewards.POST("/redeem", h.Reward.Redeem)
		}

		referrals := protected.Group("/referrals")
		{
			referrals.GET("", h.Referral.GetMyReferrals)
			referrals.GET("/code", h.Referral.GetReferralCode)
			referrals.POST("/apply", h.Referral.ApplyReferralCode)
			referrals.GET("/stats", h.Referral.GetReferralStats)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balances", h.Wallet.GetBalances)
			wallet.GET("/assets/:id/address", h.Wallet.GetDepositAddress)
			wallet.GET("/assets/:id/onchain-balance", h.Wallet.GetOnchainBalance)
			wallet.GET("/deposits", h.Wallet.GetMyDeposits)
			wallet.POST("/withdrawals", h.Wallet.RequestWithdrawal)
			wallet.GET("/withdrawals", h.Wallet.GetMyWithdrawals)
			wallet.GET("/withdrawals/:id", h.Wallet.GetWithdrawal)
			wallet.POST("/withdrawals/:id/cancel", h.Wallet.CancelWithdrawal)
		}
	}

	staff := protected.Group("")
	staff.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperadmin))
	{
		staff.POST("/investment-plans", h.Plan.CreatePlan)
		staff.PUT("/investment-plans/:id", h.Plan.UpdatePlan)
		staff.DELETE("/investment-plans/:id", h.Plan.DeletePlan)

		staff.GET("/referral-settings", h.Referral.GetSettingHistory)
		staff.PUT("/referral-settings", h.Referral.UpdateSetting)

		admin := staff.Group("/admin")
		{
			admin.GET("/dashboard", h.Admin.GetDashboard)
			admin.GET("/logs", h.Admin.GetAdminLogs)

			admin.GET("/users", h.User.ListUsers)
			admin.GET("/users/:id", h.User.GetUser)
			admin.PUT("/users/:id", h.User.UpdateUser)
			admin.POST("/users/:id/wallet", h.User.AdjustWallet)

			admin.GET("/investment-plans", h.Plan.ListAllPlans)

			admin.GET("/investments", h.Investment.ListInvestments)
			admin.GET("/investments/:id", h.Investment.AdminGetInvestment)
			admin.PUT("/investments/:id/value", h.Investment.UpdateValue)
			admin.POST("/investments/:id/complete", h.Investment.CompleteInvestment)
			admin.POST("/investments/:id/cancel", h.Investment.CancelInvestment)

			admin.GET("/transactions", h.Transaction.ListTransactions)
			admin.GET("/transactions/summary", h.Transaction.GetSummary)
			admin.POST("/transactions", h.Transaction.CreateTransaction)
			admin.PUT("/transactions/:id/status", h.Transaction.UpdateTransactionStatus)

			admin.GET("/rewards", h.Reward.ListRewards)
			admin.POST("/rewards/:userId/adjust", h.Reward.AdjustPoints)

			admin.GET("/referrals", h.Referral.ListReferrals)
			admin.POST("/referrals", h.Referral.CreateReferral)
			admin.POST("/referrals/:id/complete", h.Referral.CompleteReferral)
			admin.POST("/referrals/:id/reward", h.Referral.RewardReferral)

			admin.GET("/wallet/assets", h.Wallet.ListAllAssets)
			admin.PUT("/wallet/assets", h.Wallet.UpsertAsset)
			admin.PUT("/wallet/assets/:id/active", h.Wallet.SetAssetActive)
			admin.GET("/wallet/deposits", h.Wallet.ListDeposits)
			admin.POST("/wallet/deposits", h.Wallet.CreditDeposit)
			admin.GET("/wallet/withdrawals", h.Wallet.ListWithdrawals)
			admin.PUT("/wallet/withdrawals/:id/status", h.Wallet.TransitionWithdrawal)
		}
	}

	return router
}
