package httpapi

import (
	"weeklychef/internal/catalog"
	"weeklychef/internal/permission"

	"github.com/gin-gonic/gin"
)

// Mount registers the token endpoints and one route set per resource family.
// Verbs a family does not support are not routed; with HandleMethodNotAllowed
// set on the engine gin answers them with 405.
func Mount(api gin.IRouter, h Handlers) {
	policies := h.Policies
	if policies == nil {
		policies = permission.DefaultPolicies()
	}

	token := api.Group("/token")
	{
		token.POST("/", h.Login)
		token.POST("/register/", h.Register)
		token.POST("/refresh/", h.Refresh)
	}

	for _, family := range catalog.Families() {
		handler := h.Resource(family)
		base := "/" + family.Slug()

		api.POST(base+"/", handler)
		api.GET(base+"/:id", handler)
		if policies[family].Supports(permission.VerbUpdate) {
			api.PUT(base+"/:id", handler)
			api.PATCH(base+"/:id", handler)
		}
		api.DELETE(base+"/:id", handler)
	}
}
