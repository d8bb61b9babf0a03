package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/middleware"
)

// Controllers groups every HTTP handler of the API
type Controllers struct {
	Store         *StoreController
	Products      *ProductController
	Cart          *CartController
	Orders        *OrderController
	Notifications *NotificationController
	Push          *PushController
	Preferences   *PreferenceController
	Notices       *NoticeController
	Users         *UserController
	Events        *EventsController
}

// Register mounts the routes on api. authenticate validates the bearer token; users
// resolves the token subject to a profile.
func (cs *Controllers) Register(api *gin.RouterGroup, authenticate gin.HandlerFunc, users middleware.UserLookup) {
	api.GET("/store/status", cs.Store.GetStatus)
	api.GET("/products", cs.Products.ListProducts)
	api.GET("/push/public-key", cs.Push.PublicKey)

	// profile creation runs before a local user exists
	api.POST("/users", authenticate, cs.Users.CreateUser)

	authed := api.Group("", authenticate, middleware.LoadCurrentUser(users))
	{
		authed.GET("/users/me", cs.Users.GetMyProfile)
		authed.PATCH("/users/me", cs.Users.UpdateMyProfile)

		authed.GET("/cart", cs.Cart.GetCart)
		authed.POST("/cart/items", cs.Cart.AddItem)
		authed.PATCH("/cart/items/:productId", cs.Cart.UpdateItem)
		authed.DELETE("/cart/items/:productId", cs.Cart.RemoveItem)
		authed.DELETE("/cart", cs.Cart.ClearCart)

		authed.POST("/orders", cs.Orders.PlaceOrder)
		authed.GET("/orders", cs.Orders.ListMyOrders)
		authed.GET("/orders/:id", cs.Orders.GetMyOrder)

		authed.GET("/notifications", cs.Notifications.List)
		authed.GET("/notifications/unread-count", cs.Notifications.UnreadCount)
		authed.POST("/notifications/read-all", cs.Notifications.MarkAllRead)
		authed.POST("/notifications/:id/read", cs.Notifications.MarkRead)

		authed.POST("/push/subscriptions", cs.Push.Subscribe)
		authed.DELETE("/push/subscriptions", cs.Push.Unsubscribe)

		authed.GET("/preferences", cs.Preferences.List)
		authed.GET("/preferences/:key", cs.Preferences.Get)
		authed.PUT("/preferences/:key", cs.Preferences.Put)

		authed.GET("/notices", cs.Notices.ListNotices)
		authed.POST("/notices/:id/dismiss", cs.Notices.DismissNotice)

		authed.GET("/events", cs.Events.Stream)
	}

	admin := authed.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/settings", cs.Store.GetSettings)
		admin.PUT("/settings", cs.Store.UpdateSettings)

		admin.GET("/orders", cs.Orders.ListOrders)
		admin.PATCH("/orders/:id/status", cs.Orders.UpdateStatus)
		admin.PATCH("/orders/:id/items/:itemId", cs.Orders.UpdateItem)

		admin.GET("/products", cs.Products.ListAllProducts)
		admin.POST("/products", cs.Products.CreateProduct)
		admin.PUT("/products/:id", cs.Products.UpdateProduct)

		admin.POST("/notices", cs.Notices.CreateNotice)
		admin.PATCH("/notices/:id", cs.Notices.UpdateNotice)
	}
}
