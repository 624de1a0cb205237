package routes

import (
	"equipment_lending_tool/app"
	"equipment_lending_tool/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.GetAuthController(s)
	uc := controllers.GetUserController(s.Repo, s.AppSess, a.Config)
	catalogCtl := controllers.NewCatalogController(s)
	requestCtl := controllers.NewRequestController(s)
	repairCtl := controllers.NewRepairController(s)
	reportCtl := controllers.NewReportController(s)
	notifCtl := controllers.NewNotificationController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, a.Config.SeenThrottle)

	// ------------------------------
	// 认证（公开）
	// ------------------------------
	r.POST("/login", authCtl.Login)
	r.POST("/password-reset/request", authCtl.RequestPasswordReset)
	r.POST("/password-reset/confirm", authCtl.ConfirmPasswordReset)
	r.GET("/courses", catalogCtl.ListCourses)

	auth := r.Group("", authMW, seenMW)
	{
		auth.POST("/logout", authCtl.Logout)
		auth.GET("/whoami", authCtl.Whoami)
	}

	// ------------------------------
	// 用户管理（仅管理员）
	// ------------------------------
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.POST("", uc.CreateUser)
		users.GET("", uc.ListUsers) // ?q=&page=&size=
		users.GET("/:id", uc.GetUser)
		users.DELETE("/:id", uc.DeleteUser)
	}

	// ------------------------------
	// 目录与库存
	// ------------------------------
	catalogAdmin := r.Group("/api", authMW, adminMW)
	{
		catalogAdmin.POST("/categories", catalogCtl.CreateCategory)
		catalogAdmin.PUT("/categories/:id", catalogCtl.UpdateCategory)
		catalogAdmin.DELETE("/categories/:id", catalogCtl.DeleteCategory)
		catalogAdmin.POST("/items", catalogCtl.CreateItem)
		catalogAdmin.POST("/items/:id/units", catalogCtl.AddUnit)
		catalogAdmin.GET("/units", catalogCtl.ListUnitsAdmin) // ?q=&status=&page=&size=
	}

	catalog := r.Group("/api", authMW, seenMW)
	{
		catalog.GET("/categories", catalogCtl.ListCategories)
		catalog.GET("/items", catalogCtl.ListItems)
		catalog.GET("/items/:id", catalogCtl.GetItem)
		catalog.GET("/items/:id/units", catalogCtl.ListUnits)
	}

	// ------------------------------
	// 申请 / 借还
	// ------------------------------
	requests := r.Group("/api/requests", authMW, seenMW)
	{
		requests.POST("", requestCtl.CreateRequest)
		requests.GET("", requestCtl.ListRequests) // ?status=
	}
	requestsAdmin := r.Group("/api/requests", authMW, adminMW)
	{
		requestsAdmin.POST("/:id/approve", requestCtl.Approve)
		requestsAdmin.POST("/:id/reject", requestCtl.Reject)
	}
	loans := r.Group("/api/loans", authMW, seenMW)
	{
		loans.GET("", requestCtl.ListLoans) // ?requestId=&unitId=&status=
		loans.POST("/:id/return", requestCtl.Return)
	}

	// ------------------------------
	// 维修 / 故障上报
	// ------------------------------
	repairsAdmin := r.Group("/api/repairs", authMW, adminMW)
	{
		repairsAdmin.POST("", repairCtl.CreateRepair)
		repairsAdmin.POST("/:id/complete", repairCtl.CompleteRepair)
		repairsAdmin.GET("", repairCtl.ListRepairs)
	}
	reports := r.Group("/api/reports", authMW, seenMW)
	{
		reports.POST("", reportCtl.CreateReport)
		reports.GET("", reportCtl.ListReports)
	}
	reportsAdmin := r.Group("/api/reports", authMW, adminMW)
	{
		reportsAdmin.POST("/:id/resolve", reportCtl.ResolveReport)
	}

	// ------------------------------
	// 通知面板
	// ------------------------------
	notifs := r.Group("/api/notifications", authMW, seenMW)
	{
		notifs.GET("", notifCtl.List)
		notifs.POST("/:id/read", notifCtl.MarkRead)
		notifs.DELETE("/:id", notifCtl.Delete)
	}
}
