// Package observability provides logging and metrics support for the
// research assistant service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for questions, searches, and LLM operations
//   - Context helpers for propagating request data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("request_id", reqID).Msg("question received")
//
// Add request context to logger:
//
//	logger = observability.WithRequestContext(logger, requestID, userID)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("research_assistant")
//
// Record metrics:
//
//	metrics.RecordQuestionReceived()
//	metrics.RecordSearchCompleted(10, 1.2)
//	metrics.RecordLLMRequest("translate", "gpt-4o-mini", 0.8)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - user_id: Authenticated user identifier
//   - question: User's research question
//   - query: Translated PubMed search string
//   - pmid: PubMed article identifier
//   - provider: LLM provider (openai, anthropic)
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
