package frontend

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radpro/doselog/datalog"
	"github.com/radpro/doselog/frontend/stream"
	"github.com/radpro/doselog/utils"
	"github.com/radpro/doselog/utils/log"
)

var Queryable uint32 // treated as bool

type HeartbeatMessage struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	GitHash string `json:"git_hash"`
	Uptime  string `json:"uptime"`
}

func NewUtilityAPIHandlers(startTime time.Time, exec Executor) *utilityAPIHandlers {
	return &utilityAPIHandlers{startTime: startTime, exec: exec}
}

type utilityAPIHandlers struct {
	startTime time.Time
	exec      Executor
}

// Routes registers the utility endpoints on mux.
func (uah *utilityAPIHandlers) Routes(mux *http.ServeMux) {
	// heartbeat
	mux.HandleFunc("/heartbeat", uah.heartbeat)

	// datalog export and live stream
	mux.HandleFunc("/datalog", uah.datalog)
	mux.HandleFunc("/ws", stream.Handler)

	// monitoring
	mux.Handle("/metrics", promhttp.Handler())

	// profiling
	mux.HandleFunc("/pprof/", pprof.Index)
	mux.HandleFunc("/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/pprof/profile", pprof.Profile)
	mux.HandleFunc("/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/pprof/trace", pprof.Trace)
	mux.Handle("/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/pprof/goroutine", pprof.Handler("goroutine"))
}

func (uah *utilityAPIHandlers) Handle(url string) error {
	mux := http.NewServeMux()
	uah.Routes(mux)
	return http.ListenAndServe(url, mux)
}

func (uah *utilityAPIHandlers) heartbeat(rw http.ResponseWriter, _ *http.Request) {
	msg := HeartbeatMessage{
		Status:  "queryable",
		Version: utils.Tag,
		GitHash: utils.GitHash,
		Uptime:  time.Since(uah.startTime).String(),
	}
	if atomic.LoadUint32(&Queryable) > 0 {
		rw.WriteHeader(http.StatusOK)
	} else {
		msg.Status = "not queryable"
		rw.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(rw).Encode(msg); err != nil {
		log.Error("Failed to write heartbeat message - Error: %v", err)
	}
}

// datalog exports the log. Query parameters start, end and max select
// records like the GET datalog command; format is csv or msgpack.
func (uah *utilityAPIHandlers) datalog(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := datalog.NewFilter()
	for key, field := range map[string]*uint32{"start": &f.Start, "end": &f.End, "max": &f.Max} {
		s := q.Get(key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			http.Error(rw, "invalid "+key, http.StatusBadRequest)
			return
		}
		*field = uint32(v)
	}

	format := q.Get("format")
	switch format {
	case FormatMsgpack:
		rw.Header().Set("Content-Type", "application/x-msgpack")
	case FormatCSV, "":
		rw.Header().Set("Content-Type", "text/csv")
	default:
		http.Error(rw, "unsupported format "+format, http.StatusBadRequest)
		return
	}

	recs, err := CollectDatalog(r.Context(), uah.exec, f)
	if err != nil {
		var busy DatalogBusyError
		if errors.As(err, &busy) {
			http.Error(rw, err.Error(), http.StatusConflict)
			return
		}
		http.Error(rw, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err := WriteDatalog(rw, format, recs); err != nil {
		log.Error("failed to write datalog export: %v", err)
	}
}
