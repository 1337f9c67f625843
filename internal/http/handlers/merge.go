package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"docmerge/internal/codec"
	"docmerge/internal/config"
	"docmerge/internal/domain"
	"docmerge/internal/infra/cache"
	"docmerge/internal/infra/logging"
	"docmerge/internal/validation"
)

// MergeService bundles configuration and dependencies for document merges.
type MergeService struct {
	Config *config.Config
	Merger domain.Merger
	Fields *cache.FieldCache
}

// NewMergeService creates a MergeService. fields may be nil to disable the
// field-list cache.
func NewMergeService(cfg config.Config, merger domain.Merger, fields *cache.FieldCache) *MergeService {
	return &MergeService{
		Config: &cfg,
		Merger: merger,
		Fields: fields,
	}
}

// HandleMerge validates the request, merges the template and answers with the
// populated document.
func (svc *MergeService) HandleMerge(c *fiber.Ctx) error {
	params, err := validation.ValidateMergeRequest(c.Body())
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	tmpl, err := codec.Decode(params.Template)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, domain.InvalidBase64().Error())
	}
	if len(tmpl) > svc.Config.Limits.MaxTemplateBytes {
		return respondError(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s: limit is %d bytes", domain.ErrTemplateTooLarge, svc.Config.Limits.MaxTemplateBytes))
	}

	res, err := svc.merge(c.UserContext(), &domain.MergeRequest{Template: tmpl, Data: params.Data})
	if err != nil {
		logging.Error("Error processing document", "error", err, "request_id", requestID(c))
		return respondError(c, fiber.StatusInternalServerError, err.Error())
	}

	logging.Info("Document merged", "fields", len(res.Fields), "values", len(params.Data), "request_id", requestID(c))
	return c.JSON(MergeResponse{
		Success:  true,
		Document: codec.Encode(res.Document),
		Fields:   res.Fields,
	})
}

func (svc *MergeService) merge(ctx context.Context, req *domain.MergeRequest) (res *domain.MergeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("merge aborted: %v", r)
		}
	}()

	fields, err := svc.listFields(ctx, req.Template)
	if err != nil {
		return nil, err
	}
	doc, err := svc.Merger.Merge(req.Template, req.Data)
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, errors.New("merge produced an empty document")
	}
	if fields == nil {
		fields = []string{}
	}
	return &domain.MergeResult{Document: doc, Fields: fields}, nil
}

// listFields consults the field cache first. Cache failures are logged and
// otherwise ignored.
func (svc *MergeService) listFields(ctx context.Context, tmpl []byte) ([]string, error) {
	if svc.Fields != nil {
		fields, ok, err := svc.Fields.Get(ctx, tmpl)
		if err != nil {
			logging.Warn("Field cache read failed", "error", err)
		} else if ok {
			return fields, nil
		}
	}

	fields, err := svc.Merger.ListFields(tmpl)
	if err != nil {
		return nil, err
	}

	if svc.Fields != nil {
		if err := svc.Fields.Set(ctx, tmpl, fields); err != nil {
			logging.Warn("Field cache write failed", "error", err)
		}
	}
	return fields, nil
}

func respondError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Success: false, Error: msg})
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
