package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jadhstore/hypeauto/internal/middleware"
	"github.com/jadhstore/hypeauto/internal/scheduler"
	"github.com/jadhstore/hypeauto/internal/server/dto"
	"github.com/jadhstore/hypeauto/internal/task"
)

// RedeemHandler 兑换相关 API Handler
type RedeemHandler struct {
	sched *scheduler.Scheduler
	store *task.Store
}

// NewRedeemHandler 创建 RedeemHandler
func NewRedeemHandler(sched *scheduler.Scheduler, store *task.Store) *RedeemHandler {
	return &RedeemHandler{
		sched: sched,
		store: store,
	}
}

// validateRequest 校验单条兑换请求，返回错误描述（空串表示通过）。
func validateRequest(req dto.RedeemRequest) string {
	if !middleware.ValidatePin(req.Pin) {
		return "pin 格式无效，必须是4-64个字母、数字或连字符"
	}
	if req.GameAccountID == "" {
		return "game_account_id 不能为空"
	}
	return ""
}

func queuedResponse(t task.Task) dto.QueuedResponse {
	return dto.QueuedResponse{
		TaskID:        t.ID,
		Status:        t.Status,
		Pin:           t.Pin,
		GameAccountID: t.GameAccountID,
		OrderID:       t.OrderID,
	}
}

// Redeem godoc
// @Summary 提交兑换任务
// @Description 异步提交一次 PIN 兑换，立即返回 task_id；结果通过 webhook 或轮询获取
// @Tags Redeem
// @Accept json
// @Produce json
// @Param request body dto.RedeemRequest true "兑换请求"
// @Success 200 {object} dto.QueuedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /redeem [post]
func (h *RedeemHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if msg := validateRequest(req); msg != "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
		return
	}

	t, err := h.sched.Submit(task.CreateParams{
		Pin:           req.Pin,
		GameAccountID: req.GameAccountID,
		OrderID:       req.OrderID,
		WebhookURL:    req.WebhookURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, queuedResponse(t))
}

// RedeemSync godoc
// @Summary 同步兑换
// @Description 提交兑换并阻塞等待终态，返回完整结果文档。仍然经过调度队列与并发限制
// @Tags Redeem
// @Accept json
// @Produce json
// @Param request body dto.RedeemRequest true "兑换请求"
// @Success 200 {object} model.Outcome
// @Failure 400 {object} dto.ErrorResponse
// @Failure 504 {object} dto.ErrorResponse
// @Router /redeem/sync [post]
func (h *RedeemHandler) RedeemSync(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if msg := validateRequest(req); msg != "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
		return
	}

	t, err := h.sched.Submit(task.CreateParams{
		Pin:           req.Pin,
		GameAccountID: req.GameAccountID,
		OrderID:       req.OrderID,
		WebhookURL:    req.WebhookURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	done, err := h.sched.Wait(c.Request.Context(), t.ID)
	if err != nil {
		// 客户端断开或网关超时；任务继续执行，结果可轮询
		c.JSON(http.StatusGatewayTimeout, dto.ErrorResponse{
			Error: "timed out waiting for result, poll /task/" + t.ID,
		})
		return
	}

	c.JSON(http.StatusOK, done.Outcome())
}

// RedeemBatch godoc
// @Summary 批量提交兑换任务
// @Description 一次提交多个兑换，全部按入参顺序原子入队，返回逐条确认
// @Tags Redeem
// @Accept json
// @Produce json
// @Param request body []dto.RedeemRequest true "兑换请求数组"
// @Success 200 {array} dto.QueuedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /redeem/batch [post]
func (h *RedeemHandler) RedeemBatch(c *gin.Context) {
	var reqs []dto.RedeemRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "批量请求不能为空"})
		return
	}
	if len(reqs) > middleware.MaxBatchSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "批量请求过大，单次最多 100 条"})
		return
	}

	// 先整体校验再整体入队，失败的批次不产生任何任务
	params := make([]task.CreateParams, 0, len(reqs))
	for i, req := range reqs {
		if msg := validateRequest(req); msg != "" {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: fmt.Sprintf("第 %d 条请求无效: %s", i, msg),
			})
			return
		}
		params = append(params, task.CreateParams{
			Pin:           req.Pin,
			GameAccountID: req.GameAccountID,
			OrderID:       req.OrderID,
			WebhookURL:    req.WebhookURL,
		})
	}

	tasks := h.sched.SubmitBatch(params)

	resp := make([]dto.QueuedResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, queuedResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}

// GetTask godoc
// @Summary 查询任务状态
// @Description 按 task_id 查询任务当前状态；终态任务返回完整结果文档
// @Tags Redeem
// @Produce json
// @Param task_id path string true "任务 ID"
// @Success 200 {object} model.Outcome
// @Failure 404 {object} dto.ErrorResponse
// @Router /task/{task_id} [get]
func (h *RedeemHandler) GetTask(c *gin.Context) {
	t, err := h.store.Get(c.Param("task_id"))
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "任务不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, t.Outcome())
}
