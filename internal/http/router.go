package http

import (
	"log/slog"
	"net/http"
	"strings"
)

// RouterConfig wires the handlers and the session validator into the route
// table. Routes fall into three tiers: public, authenticated, and
// authenticated with a role check (the services enforce roles themselves).
type RouterConfig struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Rooms      *RoomHandler
	Timeslots  *TimeslotHandler
	Sessions   *SessionHandler
	Schedule   *ScheduleHandler
	Validator  SessionValidator
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := func(next http.Handler) http.Handler { return next }
	optionalAuth := func(next http.Handler) http.Handler { return next }
	if cfg.Validator != nil {
		requireAuth = RequireSession(cfg.Validator, cfg.Logger)
		optionalAuth = OptionalSession(cfg.Validator)
	}

	if cfg.Auth != nil {
		login := http.HandlerFunc(cfg.Auth.Login)
		logout := requireAuth(http.HandlerFunc(cfg.Auth.Logout))
		refresh := requireAuth(http.HandlerFunc(cfg.Auth.Refresh))
		me := requireAuth(http.HandlerFunc(cfg.Auth.Me))

		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			login.ServeHTTP(w, r)
		})
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			logout.ServeHTTP(w, r)
		})
		mux.HandleFunc("/session/refresh", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			refresh.ServeHTTP(w, r)
		})
		mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			me.ServeHTTP(w, r)
		})
	}

	if cfg.Users != nil {
		listUsers := requireAuth(http.HandlerFunc(cfg.Users.List))
		updateUser := requireAuth(http.HandlerFunc(cfg.Users.Update))
		deleteUser := requireAuth(http.HandlerFunc(cfg.Users.Delete))

		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				listUsers.ServeHTTP(w, r)
			case http.MethodPost:
				cfg.Users.Register(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/users/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithUserID(r.Context(), id))
			switch r.Method {
			case http.MethodPut:
				updateUser.ServeHTTP(w, r)
			case http.MethodDelete:
				deleteUser.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Rooms != nil {
		createRoom := requireAuth(http.HandlerFunc(cfg.Rooms.Create))
		updateRoom := requireAuth(http.HandlerFunc(cfg.Rooms.Update))
		deleteRoom := requireAuth(http.HandlerFunc(cfg.Rooms.Delete))

		mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.List(w, r)
			case http.MethodPost:
				createRoom.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/rooms/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithRoomID(r.Context(), id))
			switch r.Method {
			case http.MethodPut:
				updateRoom.ServeHTTP(w, r)
			case http.MethodDelete:
				deleteRoom.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Timeslots != nil {
		createTimeslot := requireAuth(http.HandlerFunc(cfg.Timeslots.Create))
		updateTimeslot := requireAuth(http.HandlerFunc(cfg.Timeslots.Update))
		deleteTimeslot := requireAuth(http.HandlerFunc(cfg.Timeslots.Delete))

		mux.HandleFunc("/timeslots", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Timeslots.List(w, r)
			case http.MethodPost:
				createTimeslot.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/timeslots/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/timeslots/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithTimeslotID(r.Context(), id))
			switch r.Method {
			case http.MethodPut:
				updateTimeslot.ServeHTTP(w, r)
			case http.MethodDelete:
				deleteTimeslot.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Sessions != nil {
		listSessions := optionalAuth(http.HandlerFunc(cfg.Sessions.List))
		getSession := http.HandlerFunc(cfg.Sessions.Get)
		createSession := requireAuth(http.HandlerFunc(cfg.Sessions.Create))
		updateSession := requireAuth(http.HandlerFunc(cfg.Sessions.Update))
		deleteSession := requireAuth(http.HandlerFunc(cfg.Sessions.Delete))
		incrementVote := requireAuth(http.HandlerFunc(cfg.Sessions.IncrementVote))
		decrementVote := requireAuth(http.HandlerFunc(cfg.Sessions.DecrementVote))

		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				listSessions.ServeHTTP(w, r)
			case http.MethodPost:
				createSession.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
			segments := strings.Split(rest, "/")
			if len(segments) == 0 || segments[0] == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithSessionID(r.Context(), segments[0]))

			switch {
			case len(segments) == 1:
				switch r.Method {
				case http.MethodGet:
					getSession.ServeHTTP(w, r)
				case http.MethodPut:
					updateSession.ServeHTTP(w, r)
				case http.MethodDelete:
					deleteSession.ServeHTTP(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case len(segments) == 3 && segments[1] == "vote":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				switch segments[2] {
				case "increment":
					incrementVote.ServeHTTP(w, r)
				case "decrement":
					decrementVote.ServeHTTP(w, r)
				default:
					http.NotFound(w, r)
				}
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Schedule != nil {
		generate := requireAuth(http.HandlerFunc(cfg.Schedule.Generate))
		clear := requireAuth(http.HandlerFunc(cfg.Schedule.Clear))
		move := requireAuth(http.HandlerFunc(cfg.Schedule.Move))
		swap := requireAuth(http.HandlerFunc(cfg.Schedule.Swap))
		place := requireAuth(http.HandlerFunc(cfg.Schedule.PlaceSession))
		unplace := requireAuth(http.HandlerFunc(cfg.Schedule.UnplaceSession))

		mux.HandleFunc("/schedule", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Schedule.Board(w, r)
		})
		mux.HandleFunc("/schedule/generate", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			generate.ServeHTTP(w, r)
		})
		mux.HandleFunc("/schedule/clear", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			clear.ServeHTTP(w, r)
		})
		mux.HandleFunc("/schedule/move", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			move.ServeHTTP(w, r)
		})
		mux.HandleFunc("/schedule/swap", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			swap.ServeHTTP(w, r)
		})
		mux.HandleFunc("/schedule/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			place.ServeHTTP(w, r)
		})
		mux.HandleFunc("/schedule/sessions/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/schedule/sessions/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			r = r.WithContext(ContextWithSessionID(r.Context(), id))
			unplace.ServeHTTP(w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
