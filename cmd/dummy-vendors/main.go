// Command dummy-vendors simulates stationary vendors: each one connects to
// the vendor socket and reports a slightly jittered fixed position forever.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gullylink/gullylink/pkg/hub"
	"github.com/gullylink/gullylink/pkg/util"
)

type vendor struct {
	id   string
	name string
	icon string
}

// Phoolbagh, Gwalior
const (
	baseLat = 26.2124
	baseLng = 78.1772
)

var vendors = []vendor{
	{id: "v_bot_4", name: "SS Kachori", icon: "food"},
	{id: "v_bot_5", name: "Bahadur Poha", icon: "food"},
}

func main() {
	addr := flag.String("addr", "localhost:8000", "hub host:port")
	interval := flag.Duration("interval", 5*time.Second, "time between location pings")
	lat := flag.Float64("base-lat", baseLat, "latitude vendors are scattered around")
	lng := flag.Float64("base-lng", baseLng, "longitude vendors are scattered around")
	flag.Parse()

	logger, err := util.NewLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, v := range vendors {
		g.Go(func() error {
			spot := hub.Location{
				Lat: *lat + jitter(0.002),
				Lng: *lng + jitter(0.002),
			}
			return simulate(ctx, sugar, *addr, v, spot, *interval)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		sugar.Fatalw("simulation_failed", "err", err)
	}
	sugar.Info("stopped stationary vendors")
}

func simulate(ctx context.Context, log *zap.SugaredLogger, addr string, v vendor, spot hub.Location, interval time.Duration) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws/vendor/" + v.id}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Infow("vendor_set_up_shop", "vendor_id", v.id, "name", v.name, "lat", spot.Lat, "lng", spot.Lng)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// GPS fluctuates slightly even when standing still.
		update := struct {
			Type     string       `json:"type"`
			VendorID string       `json:"vendor_id"`
			Icon     string       `json:"icon"`
			Location hub.Location `json:"location"`
		}{
			Type:     hub.TypeLocationUpdate,
			VendorID: v.id,
			Icon:     v.icon,
			Location: hub.Location{Lat: spot.Lat + jitter(0.00001), Lng: spot.Lng + jitter(0.00001)},
		}
		if err := conn.WriteJSON(update); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case <-ticker.C:
		}
	}
}

// jitter returns a uniform offset in [-span, span).
func jitter(span float64) float64 {
	return (rand.Float64()*2 - 1) * span
}
