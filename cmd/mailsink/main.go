package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DeliveryStatus represents the delivery status of a mail
type DeliveryStatus string

const (
	StatusSent    DeliveryStatus = "SENT"
	StatusFailed  DeliveryStatus = "FAILED"
	StatusPending DeliveryStatus = "PENDING"
)

// SendMailRequest represents the request to send a mail
type SendMailRequest struct {
	NotificationID string `json:"notification_id" binding:"required"`
	To             string `json:"to" binding:"required"`
	Subject        string `json:"subject" binding:"required"`
	Body           string `json:"body" binding:"required"`
}

// SendMailResponse represents the response from sending a mail
type SendMailResponse struct {
	NotificationID string         `json:"notification_id"`
	Status         DeliveryStatus `json:"status"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	ErrorCode      string         `json:"error_code,omitempty"`
	ErrorMsg       string         `json:"error_msg,omitempty"`
	ProviderID     string         `json:"provider_id"`
	ProcessedAt    time.Time      `json:"processed_at"`
}

// StatusCheckResponse represents delivery status response
type StatusCheckResponse struct {
	NotificationID string         `json:"notification_id"`
	Status         DeliveryStatus `json:"status"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	ErrorCode      string         `json:"error_code,omitempty"`
	ErrorMsg       string         `json:"error_msg,omitempty"`
	ProviderID     string         `json:"provider_id"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status       string    `json:"status"`
	ProviderID   string    `json:"provider_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// MailSink simulates an SMTP relay behind an HTTP API
type MailSink struct {
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	providerID   string
	rng          *rand.Rand
}

// NewMailSink creates a new mail sink instance
func NewMailSink(deliveryRate float64, minDelay, maxDelay time.Duration) *MailSink {
	return &MailSink{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		providerID:   "MAILSINK_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// simulateDelivery simulates the mail delivery process
func (m *MailSink) simulateDelivery(req *SendMailRequest) *SendMailResponse {
	delay := m.randomDelay()

	// Simulate relay delay
	time.Sleep(delay)

	response := &SendMailResponse{
		NotificationID: req.NotificationID,
		ProviderID:     m.providerID,
		ProcessedAt:    time.Now(),
	}

	if m.shouldSucceed() {
		now := time.Now()
		response.Status = StatusSent
		response.SentAt = &now

		log.Info().
			Str("notification_id", req.NotificationID).
			Str("to", req.To).
			Dur("delay", delay).
			Msg("Mail sent successfully")
	} else {
		response.Status = StatusFailed
		response.ErrorCode = m.randomErrorCode()
		response.ErrorMsg = m.errorMessage(response.ErrorCode)

		log.Warn().
			Str("notification_id", req.NotificationID).
			Str("to", req.To).
			Str("error_code", response.ErrorCode).
			Msg("Mail delivery failed")
	}

	return response
}

func (m *MailSink) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MailSink) shouldSucceed() bool {
	return m.rng.Float64() < m.deliveryRate
}

func (m *MailSink) randomErrorCode() string {
	errorCodes := []string{
		"INVALID_ADDRESS",
		"MAILBOX_FULL",
		"TIMEOUT",
		"BLOCKED",
		"CONTENT_REJECTED",
		"RELAY_REJECTED",
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MailSink) errorMessage(code string) string {
	msgs := map[string]string{
		"INVALID_ADDRESS":  "The recipient address is invalid or does not exist",
		"MAILBOX_FULL":     "The recipient mailbox is over quota",
		"TIMEOUT":          "Mail delivery timed out",
		"BLOCKED":          "The recipient has blocked this sender",
		"CONTENT_REJECTED": "Mail content was rejected by a content filter",
		"RELAY_REJECTED":   "Relay rejected the mail",
	}

	if msg, ok := msgs[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

// Handler struct holds the mail sink and routes
type Handler struct {
	sink *MailSink
}

func NewHandler(sink *MailSink) *Handler {
	return &Handler{sink: sink}
}

// SendMail handles single mail send requests
func (h *Handler) SendMail(c *gin.Context) {
	var req SendMailRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("notification_id", req.NotificationID).
		Str("to", req.To).
		Str("subject", req.Subject).
		Msg("Received mail send request")

	response := h.sink.simulateDelivery(&req)

	statusCode := http.StatusOK
	if response.Status == StatusFailed {
		statusCode = http.StatusAccepted // 202: accepted but failed delivery
	}

	c.JSON(statusCode, response)
}

// GetStatus handles delivery status check requests
func (h *Handler) GetStatus(c *gin.Context) {
	notificationID := c.Param("notification_id")

	if notificationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "notification_id is required",
		})
		return
	}

	// Simulate API delay
	time.Sleep(100 * time.Millisecond)

	// For demo, return random status
	response := StatusCheckResponse{
		NotificationID: notificationID,
		ProviderID:     h.sink.providerID,
	}

	if h.sink.shouldSucceed() {
		now := time.Now()
		response.Status = StatusSent
		response.SentAt = &now
	} else {
		response.Status = StatusFailed
		response.ErrorCode = "TIMEOUT"
		response.ErrorMsg = "Mail delivery timed out"
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.sink.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Provider temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		ProviderID:   h.sink.providerID,
		Timestamp:    time.Now(),
		DeliveryRate: h.sink.deliveryRate,
	})
}

// UpdateConfig allows changing sink configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.DeliveryRate != nil {
		if *config.DeliveryRate >= 0 && *config.DeliveryRate <= 1.0 {
			h.sink.deliveryRate = *config.DeliveryRate
			log.Info().Float64("rate", *config.DeliveryRate).Msg("Updated delivery rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Configuration updated",
		"delivery_rate": h.sink.deliveryRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/mail/send", handler.SendMail)
		v1.GET("/mail/status/:notification_id", handler.GetStatus)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	// Root health check
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8081")
	deliveryRate := getEnvFloat("DELIVERY_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 100*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 2*time.Second)

	log.Info().
		Str("port", port).
		Float64("delivery_rate", deliveryRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mail Sink")

	// Create mail sink
	sink := NewMailSink(deliveryRate, minDelay, maxDelay)
	handler := NewHandler(sink)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
