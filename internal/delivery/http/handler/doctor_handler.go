package handler

import (
	"net/http"

	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/usecase"
	"medical-messenger/pkg/response"
	"medical-messenger/pkg/validator"
)

type DoctorHandler struct {
	directoryUsecase usecase.DoctorDirectoryUsecase
	validator        *validator.CustomValidator
}

func NewDoctorHandler(directoryUsecase usecase.DoctorDirectoryUsecase, validator *validator.CustomValidator) *DoctorHandler {
	return &DoctorHandler{
		directoryUsecase: directoryUsecase,
		validator:        validator,
	}
}

func parseSearchQuery(p *queryParser) dto.DoctorSearchQuery {
	return dto.DoctorSearchQuery{
		Query:     p.String("q"),
		Specialty: p.String("specialty"),
		City:      p.String("city"),
		State:     p.String("state"),
		MinRating: p.Float("minRating"),
		Page:      p.Int("page"),
		Limit:     p.Int("limit"),
	}
}

// SearchDoctors lists active, verified doctors
// @Summary Search doctors
// @Description Search the public doctor directory by name, specialty, location and rating
// @Tags Doctors
// @Produce json
// @Param q query string false "Name search"
// @Param specialty query string false "Specialty"
// @Param city query string false "City"
// @Param state query string false "State"
// @Param minRating query number false "Minimum rating"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /doctors [get]
func (h *DoctorHandler) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r)
	query := parseSearchQuery(p)
	if !p.ok(w) || !validate(w, h.validator, &query) {
		return
	}

	res, err := h.directoryUsecase.SearchDoctors(r.Context(), &query)
	if err != nil {
		response.FromError(w, err, "Failed to search doctors")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Doctors retrieved successfully", res.Doctors,
		response.NewMeta(res.Page, res.Limit, res.Total, res.TotalPages))
}

// SearchAllDoctors lists doctors regardless of status (admin)
// @Summary Search all doctors
// @Description Search every doctor, optionally filtering on active and verified flags
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param isActive query bool false "Active flag"
// @Param emailVerified query bool false "Verified flag"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/doctors [get]
func (h *DoctorHandler) SearchAllDoctors(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r)
	query := dto.AdminDoctorSearchQuery{
		DoctorSearchQuery: parseSearchQuery(p),
		IsActive:          p.Bool("isActive"),
		EmailVerified:     p.Bool("emailVerified"),
	}
	if !p.ok(w) || !validate(w, h.validator, &query) {
		return
	}

	res, err := h.directoryUsecase.SearchAllDoctors(r.Context(), &query)
	if err != nil {
		response.FromError(w, err, "Failed to search doctors")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Doctors retrieved successfully", res.Doctors,
		response.NewMeta(res.Page, res.Limit, res.Total, res.TotalPages))
}

// GetDoctor returns a single doctor profile
// @Summary Get doctor
// @Tags Doctors
// @Produce json
// @Param id path string true "Doctor user ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /doctors/{id} [get]
func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathID(w, r, "id", "doctor")
	if !ok {
		return
	}

	doctor, err := h.directoryUsecase.GetDoctor(r.Context(), doctorID)
	if err != nil {
		response.FromError(w, err, "Failed to get doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor retrieved successfully", doctor)
}

// GetTopRatedDoctors
// @Summary Top rated doctors
// @Tags Doctors
// @Produce json
// @Param limit query int false "Maximum results"
// @Param minRating query number false "Minimum rating"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /doctors/top-rated [get]
func (h *DoctorHandler) GetTopRatedDoctors(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r)
	query := dto.TopRatedQuery{
		Limit:     p.Int("limit"),
		MinRating: p.Float("minRating"),
	}
	if !p.ok(w) || !validate(w, h.validator, &query) {
		return
	}

	doctors, err := h.directoryUsecase.GetTopRatedDoctors(r.Context(), &query)
	if err != nil {
		response.FromError(w, err, "Failed to get top rated doctors")
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}

// GetStatistics
// @Summary Directory statistics
// @Tags Doctors
// @Produce json
// @Success 200 {object} response.Response
// @Router /doctors/stats [get]
func (h *DoctorHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.directoryUsecase.GetStatistics(r.Context())
	if err != nil {
		response.FromError(w, err, "Failed to get doctor statistics")
		return
	}

	response.Success(w, http.StatusOK, "Statistics retrieved successfully", stats)
}
