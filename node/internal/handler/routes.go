package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/SipengXie/zipline/node/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/identity",
				Handler: createIdentityHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/identity/:ethAddress",
				Handler: getIdentityHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/execute",
				Handler: executeHandler(serverCtx),
			},
		},
	)
}
