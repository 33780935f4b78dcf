package services

import (
	"context"
	"errors"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
)

var (
	DefaultGrader *Grader
	DefaultRunner *Runner
)

// InitServices builds the shared service instances from configuration.
// Missing credentials disable a dependency rather than failing startup.
func InitServices(cfg *config.Config) {
	var oracle Oracle
	if cfg.OracleAPIKey != "" {
		oracle = NewHTTPOracle(cfg.OracleURL, cfg.OracleAPIKey, cfg.OracleModelList(), cfg.OracleTimeout())
	} else {
		logger.Warn().Msg("Grading oracle key missing, submissions use local validators")
	}
	DefaultGrader = NewGrader(oracle)
	DefaultRunner = NewRunner(cfg.PistonURL)

	DefaultMailer = NewMailer(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromEmail)
	if DefaultMailer == nil {
		logger.Warn().Msg("SendGrid not configured, transactional mail disabled")
	}

	store, err := NewR2Store(context.Background(), cfg)
	switch {
	case err == nil:
		DefaultStore = store
	case errors.Is(err, ErrStorageNotConfigured):
		logger.Warn().Msg("R2 storage not configured, uploads disabled")
	default:
		logger.Error().Err(err).Msg("Failed to init R2 storage")
	}

	payments := &PaymentService{
		Currency: cfg.Currency,
		Bank: BankDetails{
			BankName:    cfg.BankName,
			AccountName: cfg.BankAccountName,
			IBAN:        cfg.BankIBAN,
		},
		WhatsAppNumber: cfg.WhatsAppNumber,
		TierPrices: map[models.MembershipTier]float64{
			models.TierPro: cfg.ProMonthlyPrice,
			models.TierVIP: cfg.VIPMonthlyPrice,
		},
		MembershipDays: cfg.MembershipDurationDays,
	}
	if gw := NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret); gw != nil {
		payments.Gateway = gw
		payments.GatewayKeyID = gw.KeyID
		DefaultGateway = gw
	} else {
		logger.Warn().Msg("Razorpay keys missing, gateway checkout disabled")
	}
	DefaultPayments = payments
}

// DefaultGateway verifies gateway callbacks; nil when Razorpay is not configured.
var DefaultGateway *RazorpayGateway
