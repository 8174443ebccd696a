package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/config"
	"github.com/creators-jp/portal-server/internal/discord"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/report"
	"github.com/creators-jp/portal-server/internal/repository"
)

// WebhookSender posts a message to a Discord webhook URL.
type WebhookSender interface {
	Send(ctx context.Context, webhookURL string, message discord.Message) error
}

// NotifyInput is one notification request.
type NotifyInput struct {
	Site         model.Site `json:"site"`
	Type         string     `json:"type"`
	Period       string     `json:"period"`
	ArticleTitle string     `json:"articleTitle"`
	ArticleURL   string     `json:"articleUrl"`
}

type NotifyService struct {
	cfg         *config.Config
	sender      WebhookSender
	reports     *ReportService
	summaryRepo repository.SummaryRepository
	logRepo     repository.NotificationLogRepository
}

func NewNotifyService(cfg *config.Config, sender WebhookSender, reports *ReportService, summaryRepo repository.SummaryRepository, logRepo repository.NotificationLogRepository) *NotifyService {
	return &NotifyService{cfg: cfg, sender: sender, reports: reports, summaryRepo: summaryRepo, logRepo: logRepo}
}

// Notify sends a Discord notification of the requested type. The log
// row is appended best-effort; a failed log write never fails a sent
// notification.
func (s *NotifyService) Notify(ctx context.Context, input NotifyInput) error {
	webhookURL := s.cfg.Site(input.Site).DiscordWebhookURL
	if webhookURL == "" {
		return apperrors.ConfigError("Discord webhook is not configured for this site")
	}

	var (
		message discord.Message
		typ     model.NotificationType
		period  string
	)

	switch input.Type {
	case string(model.NotificationMonthly):
		typ = model.NotificationMonthly

		dr, err := report.CalculateDateRange(input.Period, time.Now())
		if err != nil {
			return apperrors.InvalidPeriod(input.Period)
		}
		period = dr.Period

		ga, gsc, err := s.fetchReports(ctx, input.Site, period)
		if err != nil {
			return err
		}
		message = discord.MonthlyReportMessage(s.cfg.Site(input.Site).Name, ga, gsc)

	case string(model.NotificationArticle):
		typ = model.NotificationArticle
		if input.ArticleTitle == "" || input.ArticleURL == "" {
			return apperrors.ValidationError("articleTitle and articleUrl are required")
		}
		message = discord.ArticleMessage(s.cfg.Site(input.Site).Name, input.ArticleTitle, input.ArticleURL)

	default:
		return apperrors.ValidationError("type must be monthly or article")
	}

	if err := s.sender.Send(ctx, webhookURL, message); err != nil {
		s.appendLog(ctx, input.Site, typ, model.NotificationError, err.Error())
		return apperrors.NotifyFailed(err.Error())
	}

	s.appendLog(ctx, input.Site, typ, model.NotificationSuccess, "")

	if typ == model.NotificationMonthly {
		if err := s.summaryRepo.MarkNotified(ctx, input.Site, period); err != nil {
			log.Warn().Err(err).Str("site", string(input.Site)).Str("period", period).Msg("failed to mark summary as notified")
		}
	}

	return nil
}

// NotifyFailure sends a best-effort system error embed to the site's
// webhook. The caller is already on an error path, so send failures
// and missing webhook config are logged and swallowed.
func (s *NotifyService) NotifyFailure(ctx context.Context, site model.Site, errorType string, cause error) {
	webhookURL := s.cfg.Site(site).DiscordWebhookURL
	if webhookURL == "" {
		return
	}
	if err := s.sender.Send(ctx, webhookURL, discord.ErrorMessage(errorType, cause.Error())); err != nil {
		log.Warn().Err(err).Str("site", string(site)).Str("error_type", errorType).Msg("failed to send error notification")
	}
}

// fetchReports loads the GA and GSC reports for the monthly embed,
// sharing the report cache with the report endpoints.
func (s *NotifyService) fetchReports(ctx context.Context, site model.Site, period string) (*report.GAReport, *report.GSCReport, error) {
	gaData, _, _, err := s.reports.GA(ctx, site, period)
	if err != nil {
		return nil, nil, err
	}
	gscData, _, _, err := s.reports.GSC(ctx, site, period)
	if err != nil {
		return nil, nil, err
	}

	ga, err := asGAReport(gaData)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeGA4, "Malformed GA4 report", err)
	}
	gsc, err := asGSCReport(gscData)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeGSC, "Malformed Search Console report", err)
	}
	return ga, gsc, nil
}

// Logs returns the newest notification log rows for a site.
func (s *NotifyService) Logs(ctx context.Context, site model.Site, limit int) ([]model.NotificationLog, error) {
	logs, err := s.logRepo.ListBySite(ctx, site, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return logs, nil
}

func (s *NotifyService) appendLog(ctx context.Context, site model.Site, typ model.NotificationType, status model.NotificationStatus, message string) {
	var msg *string
	if message != "" {
		msg = &message
	}
	if err := s.logRepo.Append(ctx, site, typ, status, msg); err != nil {
		log.Warn().Err(err).Str("site", string(site)).Str("type", string(typ)).Msg("failed to append notification log")
	}
}

// asGAReport normalizes a report that may arrive as a struct or as
// raw cached JSON.
func asGAReport(data any) (*report.GAReport, error) {
	if ga, ok := data.(*report.GAReport); ok {
		return ga, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var ga report.GAReport
	if err := json.Unmarshal(raw, &ga); err != nil {
		return nil, err
	}
	return &ga, nil
}

func asGSCReport(data any) (*report.GSCReport, error) {
	if gsc, ok := data.(*report.GSCReport); ok {
		return gsc, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var gsc report.GSCReport
	if err := json.Unmarshal(raw, &gsc); err != nil {
		return nil, err
	}
	return &gsc, nil
}
