package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/moyeora/server/internal/app"
	"github.com/moyeora/server/internal/config"
	"github.com/moyeora/server/internal/domain"
)

// Controller accepts websocket upgrades and feeds decoded client events
// into the gateway.
type Controller struct {
	Gateway *app.Gateway
	Cfg     *config.Config
}

func NewController(gw *app.Gateway, cfg *config.Config) *Controller {
	return &Controller{Gateway: gw, Cfg: cfg}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newConnID derives a per-socket connection id. The cookie token stays the
// stable client identity; every upgrade gets its own suffix so two sockets
// from one browser never share an id.
func newConnID(token string) domain.ConnID {
	return domain.ConnID(token + ":" + uuid.NewString())
}

// HandleEvents upgrades the request and runs the read/write pumps for the
// lifetime of the connection. The minted connection id is pushed to the
// client as the first frame, it is the address peers signal to.
func (ctl *Controller) HandleEvents(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	cid := newConnID(token)
	log.Info().Str("module", "ws").Str("token", token).Str("cid", string(cid)).Msg("new WS connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}

	conn := newConn(sock, ctl.Cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Gateway.Connect(cid, conn, cancel)

	// A server-side cancel must unblock the read loop right away, not on
	// the next pong timeout.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go ctl.writePump(ctx, cid, conn)
	go ctl.readPump(ctx, cancel, cid, conn)

	ctl.sendEvent(conn, "connected", cid)
}
