package handler

import (
	"net/http"
	"strconv"

	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/usecase"
	"medical-messenger/pkg/response"
	"medical-messenger/pkg/validator"

	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	validator       *validator.CustomValidator
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, validator *validator.CustomValidator) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		validator:       validator,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auditLogID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid audit log ID")
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		response.FromError(w, err, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r)
	query := dto.AuditLogListQuery{
		Page:  p.Int("page"),
		Limit: p.Int("limit"),
	}
	if !p.ok(w) || !validate(w, h.validator, &query) {
		return
	}

	res, err := h.auditLogUsecase.GetAllAuditLogs(r.Context(), &query)
	if err != nil {
		response.FromError(w, err, "Failed to get audit logs")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Audit logs retrieved successfully", res.Logs,
		response.NewMeta(res.Page, res.Limit, res.Total, res.TotalPages))
}
