// Package mcp exposes tree rendering to tools, over HTTP and over the Model
// Context Protocol on stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	maximumRequestBytes     = 1 << 20

	capabilitiesPath  = "/capabilities"
	commandsPrefix    = "/commands/"
	treeCommandPath   = commandsPrefix + TreeToolName
	headerAllow       = "Allow"
	headerContentType = "Content-Type"
	mimeTypeJSON      = "application/json"

	treeCapabilityDescription = "Render a directory as an ASCII tree"

	errorFieldName          = "error"
	errorCommandNotFound    = "command not found"
	errorUnsupportedMedia   = "tree requests must be sent as application/json"
	errorDecodeTreeRequest  = "decode tree request: %v"
	errorEncodeTreeResponse = "encode response: %v"

	logMessageListening   = "tree server listening"
	logMessageTreeFailed  = "tree request failed"
	logMessageTreeServed  = "tree request served"
	logFieldAddress       = "address"
	logFieldRoot          = "root"
	logFieldStatus        = "status"
	logFieldWarningsCount = "warnings"
)

// ErrInvalidRequest marks tree failures caused by the request itself. Handlers
// wrap it so the server answers 400 instead of 500.
var ErrInvalidRequest = errors.New("invalid tree request")

// Capability describes a command exposed by the server.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TreeCapability is the only command the server advertises.
var TreeCapability = Capability{Name: TreeToolName, Description: treeCapabilityDescription}

// TreeRequest is the JSON body of POST /commands/tree. Nil pointers fall back
// to the handler's defaults.
type TreeRequest struct {
	Root          string   `json:"root"`
	IncludeHidden *bool    `json:"includeHidden"`
	MaxDepth      *int     `json:"maxDepth"`
	Exclude       []string `json:"exclude"`
	ExcludePath   []string `json:"excludePath"`
	IgnoreCase    *bool    `json:"ignoreCase"`
	Format        string   `json:"format"`
	Summary       *bool    `json:"summary"`
}

// TreeResponse is the rendered tree returned to the client.
type TreeResponse struct {
	Output   string   `json:"output"`
	Format   string   `json:"format"`
	Warnings []string `json:"warnings,omitempty"`
}

// TreeHandler renders the tree a request describes.
type TreeHandler func(ctx context.Context, request TreeRequest) (TreeResponse, error)

// Config defines runtime options for the HTTP tree server.
type Config struct {
	Address         string
	Tree            TreeHandler
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Server answers tree requests over HTTP.
type Server struct {
	config Config
}

// NewServer creates a Server with defaults applied.
func NewServer(config Config) (Server, error) {
	if config.Tree == nil {
		return Server{}, errors.New("mcp: tree handler is nil")
	}
	if config.Address == "" {
		config.Address = defaultListenAddress
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultShutdownDuration
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return Server{config: config}, nil
}

// Handler returns the routes served by Run.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(capabilitiesPath, server.handleCapabilities)
	router.HandleFunc(treeCommandPath, server.handleTree)
	router.HandleFunc(commandsPrefix, func(writer http.ResponseWriter, _ *http.Request) {
		writeError(writer, http.StatusNotFound, errorCommandNotFound)
	})
	return router
}

// Run listens on the configured address and serves until ctx is canceled.
// notify receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	boundAddress := listener.Addr().String()
	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: server.config.ShutdownTimeout}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve trees: %w", serveErr)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shut down tree server: %w", shutdownErr)
		}
		return nil
	})

	server.config.Logger.Info(logMessageListening, zap.String(logFieldAddress, boundAddress))
	if notify != nil {
		notify(boundAddress)
	}
	return group.Wait()
}

func (server Server) handleCapabilities(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.Header().Set(headerAllow, http.MethodGet)
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(writer, http.StatusOK, struct {
		Capabilities []Capability `json:"capabilities"`
	}{Capabilities: []Capability{TreeCapability}})
}

func (server Server) handleTree(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.Header().Set(headerAllow, http.MethodPost)
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !acceptsJSON(request.Header.Get(headerContentType)) {
		writeError(writer, http.StatusUnsupportedMediaType, errorUnsupportedMedia)
		return
	}

	var treeRequest TreeRequest
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, maximumRequestBytes))
	if decodeErr := decoder.Decode(&treeRequest); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		writeError(writer, http.StatusBadRequest, fmt.Sprintf(errorDecodeTreeRequest, decodeErr))
		return
	}

	response, treeErr := server.config.Tree(request.Context(), treeRequest)
	if treeErr != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(treeErr, ErrInvalidRequest) {
			statusCode = http.StatusBadRequest
		}
		server.config.Logger.Warn(
			logMessageTreeFailed,
			zap.String(logFieldRoot, treeRequest.Root),
			zap.Int(logFieldStatus, statusCode),
			zap.Error(treeErr),
		)
		writeError(writer, statusCode, treeErr.Error())
		return
	}
	server.config.Logger.Debug(
		logMessageTreeServed,
		zap.String(logFieldRoot, treeRequest.Root),
		zap.Int(logFieldWarningsCount, len(response.Warnings)),
	)
	writeJSON(writer, http.StatusOK, response)
}

// acceptsJSON allows a missing content type so bare curl posts keep working.
func acceptsJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, parseErr := mime.ParseMediaType(contentType)
	return parseErr == nil && mediaType == mimeTypeJSON
}

func writeError(writer http.ResponseWriter, statusCode int, message string) {
	writeJSON(writer, statusCode, map[string]string{errorFieldName: message})
}

func writeJSON(writer http.ResponseWriter, statusCode int, payload any) {
	encoded, encodeErr := json.Marshal(payload)
	if encodeErr != nil {
		statusCode = http.StatusInternalServerError
		encoded, _ = json.Marshal(map[string]string{errorFieldName: fmt.Sprintf(errorEncodeTreeResponse, encodeErr)})
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(append(encoded, '\n'))
}
