package routes

import (
	"bilhete/auth"
	"bilhete/cartsync"
	"bilhete/catalog"
	"bilhete/checkout"
	"bilhete/mentors"
	"bilhete/middleware"
	"bilhete/notify"
	"bilhete/pay"
	"bilhete/ratelim"
	"bilhete/ticketview"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler) {
	router.POST("/api/auth/login", ratelim.RateLimit(h.Login))
	router.POST("/api/auth/register", ratelim.RateLimit(h.Register))
	router.POST("/api/auth/logout", h.Logout)
}

func AddCartRoutes(router *httprouter.Router, syncer *cartsync.Syncer) {
	router.GET("/api/cart", middleware.Authenticate(syncer.GetCart))
	router.POST("/api/cart/items", middleware.Authenticate(syncer.AddItemHandler))
	router.PUT("/api/cart/items/:eventid/:ticketid", middleware.Authenticate(syncer.SetQuantityHandler))
	router.DELETE("/api/cart/items/:eventid/:ticketid", middleware.Authenticate(syncer.RemoveItemHandler))
	router.DELETE("/api/cart", middleware.Authenticate(syncer.ClearCartHandler))
}

func AddCheckoutRoutes(router *httprouter.Router, orc *checkout.Orchestrator, idem *pay.Middleware) {
	router.POST("/api/checkout/mpesa", ratelim.RateLimit(middleware.Authenticate(idem.Idempotent(orc.SubmitMpesa))))
	router.POST("/api/checkout/transfer", ratelim.RateLimit(middleware.Authenticate(idem.Idempotent(orc.SubmitTransfer))))
	router.GET("/api/checkout/:cartid/status", middleware.Authenticate(orc.CheckoutStatus))
}

func AddCatalogRoutes(router *httprouter.Router, h *catalog.Handler) {
	router.GET("/api/events", h.ListEvents)
	router.GET("/api/events/:eventid", h.GetEvent)
	router.GET("/api/categories", h.ListCategories)
}

func AddProfileRoutes(router *httprouter.Router, h *ticketview.Handler) {
	router.GET("/api/profile/tickets", middleware.Authenticate(h.MyTickets))
	router.GET("/api/profile/tickets/:ticketid/qr", middleware.Authenticate(h.TicketQR))
	router.GET("/api/profile/tickets/:ticketid/pdf", middleware.Authenticate(h.TicketPDF))
}

func AddMentorRoutes(router *httprouter.Router, h *mentors.Handler) {
	router.GET("/api/mentors", h.ListMentors)
	router.GET("/api/mentors/:mentorid", h.GetMentor)
	router.POST("/api/mentors/:mentorid/bookings", middleware.Authenticate(h.BookMentor))
}

func AddNotifyRoutes(router *httprouter.Router, hub *notify.Hub) {
	router.GET("/ws/cart", middleware.Authenticate(notify.WebSocketHandler(hub)))
	router.GET("/api/cart/stream", middleware.Authenticate(notify.SSEHandler(hub)))
}
