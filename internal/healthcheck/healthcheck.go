package healthcheck

// ReadyChecker 可报告就绪状态的组件
type ReadyChecker interface {
	Ready() bool
}

// HealthChecker 健康检查器
type HealthChecker struct {
	executor ReadyChecker
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(executor ReadyChecker) *HealthChecker {
	return &HealthChecker{executor: executor}
}

// CheckResult 健康检查结果
type CheckResult struct {
	Status string            `json:"status"` // "ok" or "error"
	Checks map[string]string `json:"checks"`
}

// LivenessCheck 存活检查（快速返回，不检查依赖）
func (h *HealthChecker) LivenessCheck() CheckResult {
	return CheckResult{
		Status: "ok",
		Checks: map[string]string{
			"service": "running",
		},
	}
}

// ReadinessCheck 就绪检查：浏览器执行器是否可用
func (h *HealthChecker) ReadinessCheck() CheckResult {
	result := CheckResult{
		Checks: make(map[string]string),
	}

	if h.executor != nil {
		if h.executor.Ready() {
			result.Checks["executor"] = "ok"
		} else {
			result.Checks["executor"] = "error: not initialized"
			result.Status = "error"
		}
	}

	if result.Status == "" {
		result.Status = "ok"
	}

	return result
}
