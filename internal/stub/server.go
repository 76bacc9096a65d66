// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stub is a development backend answering terminal scan reports.
package stub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	accessterm "github.com/ZaparooProject/go-accessterm"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Outcome strings, per response variant
const (
	OutcomeCheckin        = "checkin"
	OutcomeCheckout       = "checkout"
	OutcomeMemberNotFound = "member-not-found"
	OutcomeCardNotFound   = "card-not-found"

	LegacyAdded   = "added"
	LegacyRemoved = "removed"
	LegacyUnknown = "unknown"
)

// RequestIDHeader carries the per-request id set by the server.
const RequestIDHeader = "X-Request-Id"

// Config configures the stub server.
type Config struct {
	// Variant selects the response vocabulary: "ourspace" (default) or "legacy".
	Variant string
	// Path is the scan endpoint, "/scan" when empty.
	Path string
}

// Server answers scan reports from a Directory and a PresenceStore.
type Server struct {
	router  *gin.Engine
	dir     *Directory
	store   PresenceStore
	log     *logrus.Entry
	variant string
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type scanRequest struct {
	CardSerial string `json:"card_serial"`
	UID        string `json:"uid"`
	TerminalID string `json:"terminalId"`
}

// NewServer builds the gin router for the stub backend.
func NewServer(cfg Config, dir *Directory, store PresenceStore) (*Server, error) {
	switch cfg.Variant {
	case "":
		cfg.Variant = accessterm.VariantOurspace
	case accessterm.VariantOurspace, accessterm.VariantLegacy:
	default:
		return nil, fmt.Errorf("unknown response variant %q", cfg.Variant)
	}
	if cfg.Path == "" {
		cfg.Path = "/scan"
	}
	if dir == nil || store == nil {
		return nil, errors.New("stub server needs a directory and a presence store")
	}

	router := gin.New()

	s := &Server{
		router:  router,
		dir:     dir,
		store:   store,
		variant: cfg.Variant,
		log:     accessterm.Logger().WithField("component", "stub"),
	}

	router.Use(gin.Recovery())
	router.Use(s.requestID())
	router.POST(cfg.Path, s.handleScan)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve runs the server on l until ctx is canceled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.log.WithField("addr", l.Addr().String()).Info("stub backend listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("stub server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stub server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stub server: %w", err)
	}
	return nil
}

func (*Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	serial := req.CardSerial
	if serial == "" {
		serial = req.UID
	}
	uid, err := NormalizeUID(serial)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card serial encoding"})
		return
	}

	log := s.log.WithFields(logrus.Fields{
		"request":  c.GetString("requestID"),
		"uid":      uid,
		"terminal": req.TerminalID,
	})

	outcome, err := s.resolve(c.Request.Context(), uid)
	if err != nil {
		log.WithError(err).Error("scan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presence store unavailable"})
		return
	}

	log.WithField("outcome", outcome).Info("scan")
	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}

// resolve returns the outcome string for uid in the configured vocabulary.
func (s *Server) resolve(ctx context.Context, uid string) (string, error) {
	memberID, _, cardFound, memberFound := s.dir.Lookup(uid)
	if !cardFound {
		return s.word(OutcomeCardNotFound), nil
	}
	if !memberFound {
		return s.word(OutcomeMemberNotFound), nil
	}

	present, err := s.store.Toggle(ctx, memberID)
	if err != nil {
		return "", err
	}
	if present {
		return s.word(OutcomeCheckin), nil
	}
	return s.word(OutcomeCheckout), nil
}

// word translates an outcome to the legacy vocabulary when configured.
// Legacy backends have no member-not-found and report it as unknown.
func (s *Server) word(outcome string) string {
	if s.variant != accessterm.VariantLegacy {
		return outcome
	}
	switch outcome {
	case OutcomeCheckin:
		return LegacyAdded
	case OutcomeCheckout:
		return LegacyRemoved
	default:
		return LegacyUnknown
	}
}
