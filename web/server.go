package web

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mogaika/diesel_model_tool/utils"
)

// maxUploadSize bounds multipart forms kept in memory. Larger parts go to temp files.
const maxUploadSize = 64 << 20

func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/export/{format}", HandlerExport).Methods(http.MethodPost)
	r.HandleFunc("/import", HandlerImport).Methods(http.MethodPost)
	r.HandleFunc("/dump", HandlerDump).Methods(http.MethodPost)
	r.HandleFunc("/formats", HandlerFormats).Methods(http.MethodGet)
	return r
}

func NewHandler() http.Handler {
	var h http.Handler = NewRouter()
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = handlers.LoggingHandler(zap.NewStdLog(utils.Log.Desugar()).Writer(), h)
	return h
}

func StartServer(addr string) error {
	utils.Log.Infof("[web] Starting server %v", addr)
	return http.ListenAndServe(addr, NewHandler())
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	utils.Log.Error(v...)
}
