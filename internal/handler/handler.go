package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/config"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/repository"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/workflow"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	engine     *workflow.Engine

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, engine *workflow.Engine) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		engine:     engine,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/workers", func(r chi.Router) {
			r.With(h.minimumRole(domain.RoleAdmin)).Post("/", h.CreateWorker)
			r.Get("/", h.GetAllWorkerInfo) // 所有员工都可以查看其他人的基本信息
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.workerInfo)
				r.Get("/", h.GetWorkerInfo)
				r.With(h.preventOperateInitialAdmin).With(h.minimumRole(domain.RoleAdmin)).Patch("/", h.UpdateWorker)
				r.With(h.preventOperateInitialAdmin).With(h.minimumRole(domain.RoleAdmin)).Delete("/", h.DeleteWorker)
			})
		})

		r.Route("/preferences", func(r chi.Router) {
			r.Use(h.myInfo)
			r.With(h.preventInactiveWorker).Post("/", h.SubmitPreference)
			r.Get("/", h.GetMyPreferences)
			r.With(h.minimumRole(domain.RoleSubManager)).Get("/pending", h.GetPendingPreferences)
		})

		r.Route("/shift-groups", func(r chi.Router) {
			r.Use(h.myInfo)
			r.With(h.minimumRole(domain.RoleSubManager)).Post("/generate", h.GenerateShiftGroup)
			r.Route("/{groupID}", func(r chi.Router) {
				r.Get("/", h.GetShiftGroup)
				r.With(h.minimumRole(domain.RoleManager)).Post("/approve", h.ApproveShiftGroup)
				r.With(h.minimumRole(domain.RoleManager)).Post("/reject", h.RejectShiftGroup)
				r.With(h.minimumRole(domain.RoleManager)).Post("/publish", h.PublishShiftGroup)
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftInfo)
				r.Get("/", h.GetShift)
				r.Get("/revisions", h.GetShiftRevisions)
				r.With(h.minimumRole(domain.RoleSubManager)).Patch("/", h.AdjustShift)
				r.With(h.minimumRole(domain.RoleManager)).Post("/approve", h.ApproveShift)
				r.With(h.minimumRole(domain.RoleManager)).Post("/reject", h.RejectShift)
				r.With(h.minimumRole(domain.RoleSubManager)).Post("/revise", h.ReviseShift)
			})
		})

		r.With(h.myInfo).Get("/my-shifts", h.GetMyShifts)
	})
}
