package api

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	_ "net/http/pprof"
	"strconv"

	"github.com/pulsegrid/predictsync/logic"
	"github.com/pulsegrid/predictsync/pkg/auth"
	"github.com/pulsegrid/predictsync/pkg/dashboard"
)

//go:embed index.html
var index string

// WebAPI serves the status page, a spectator websocket feed, and a
// token-issuing endpoint used to bootstrap local testing without a
// separate matchmaking service.
type WebAPI struct {
	rooms  *logic.RoomManager
	issuer *auth.Issuer
}

// NewWebAPI starts serving addr in the background.
func NewWebAPI(addr string, rooms *logic.RoomManager, hub *dashboard.Hub, issuer *auth.Issuer) *WebAPI {
	a := &WebAPI{rooms: rooms, issuer: issuer}

	http.HandleFunc("/", a.index)
	http.HandleFunc("/token", a.issueToken)
	http.Handle("/ws", hub)

	go func() {
		fmt.Println("web api listen on", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			panic(err)
		}
	}()

	return a
}

func (a *WebAPI) index(w http.ResponseWriter, r *http.Request) {
	t, err := template.New("status").Parse(index)
	if err != nil {
		w.Write([]byte("error"))
		return
	}
	t.Execute(w, map[string]any{"Rooms": a.rooms.RoomNum()})
}

// issueToken mints a session token for {room, entity} query params, purely
// so a local demo client can obtain one without a real matchmaking
// service. A production deployment would never expose this endpoint.
func (a *WebAPI) issueToken(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	roomID, _ := strconv.ParseUint(query.Get("room"), 10, 64)
	entityID, _ := strconv.ParseUint(query.Get("entity"), 10, 64)

	token, err := a.issuer.GenerateSessionToken(roomID, entityID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, token)
}
