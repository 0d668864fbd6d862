package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	xerrors "AIrchitect-CLI/internal/errors"
	"AIrchitect-CLI/internal/observability/metrics"
	"AIrchitect-CLI/pkg/logger"
	"AIrchitect-CLI/pkg/plugin"
)

// MaxRequestBody 限制调用请求体大小。
const MaxRequestBody = 1 << 20

// InvokeRequest 是命令调用的请求体。
type InvokeRequest struct {
	Args []string `json:"args"`
}

// PluginList 是插件清单接口的响应体。
type PluginList struct {
	Plugins []plugin.Info `json:"plugins"`
}

// Server 负责暴露 REST 接口，供外部调用已加载的插件。
type Server struct {
	addr    string
	manager *plugin.Manager
	metrics *metrics.Collector
	log     *slog.Logger
}

// NewServer 构造 API 服务实例。collector 为空时不暴露 /metrics。
func NewServer(addr string, mgr *plugin.Manager, collector *metrics.Collector) *Server {
	return &Server{addr: addr, manager: mgr, metrics: collector, log: logger.Named("api")}
}

// Handler 返回完整的路由。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/plugins", s.handleListPlugins)
	mux.HandleFunc("GET /api/v1/plugins/{name}", s.handlePluginInfo)
	mux.HandleFunc("POST /api/v1/plugins/{name}/commands/{command}", s.handleInvoke)
	if s.metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.metrics))
	}
	return s.instrument(mux)
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("API 服务已启动", slog.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"plugins": s.manager.Registry().Len(),
	})
}

func (s *Server) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	registry := s.manager.Registry()
	out := PluginList{Plugins: []plugin.Info{}}
	for _, name := range registry.List() {
		inst, ok := registry.Lookup(name)
		if !ok {
			continue
		}
		info, err := inst.Info(r.Context())
		if err != nil {
			s.log.Warn("读取插件信息失败", slog.String("plugin", name), slog.Any("error", err))
			continue
		}
		out.Plugins = append(out.Plugins, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePluginInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	inst, ok := s.manager.Registry().Lookup(name)
	if !ok {
		writeResult(w, plugin.Fail(plugin.KindPluginNotFound, name, "", "plugin not found: "+name))
		return
	}
	info, err := inst.Info(r.Context())
	if err != nil {
		writeResult(w, plugin.Fail(plugin.KindOf(err), name, "", "failed to describe plugin"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name, command := r.PathValue("name"), r.PathValue("command")

	var req InvokeRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeResult(w, plugin.Fail(plugin.KindInvalidArguments, name, command, "request body must be {\"args\": [strings]}"))
			return
		}
	}
	if req.Args == nil {
		req.Args = []string{}
	}

	writeResult(w, s.manager.Invoke(r.Context(), name, command, req.Args))
}

func writeResult(w http.ResponseWriter, res plugin.Result) {
	status := http.StatusOK
	if !res.IsOk() {
		status = statusFor(res.Kind())
	}
	writeJSON(w, status, res)
}

func statusFor(kind plugin.ErrorKind) int {
	if status := xerrors.AttributesOf(kind).Status; status != 0 {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument 记录每个请求的路由模板、状态码与耗时。
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if s.metrics == nil {
			return
		}
		route := r.Pattern
		if _, path, ok := strings.Cut(route, " "); ok {
			route = path
		}
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTPRequest(route, r.Method, rec.status, time.Since(start))
	})
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
