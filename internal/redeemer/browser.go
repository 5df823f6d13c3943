package redeemer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jadhstore/hypeauto/internal/config"
	"github.com/jadhstore/hypeauto/internal/logger"
	"github.com/jadhstore/hypeauto/internal/model"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// 屏蔽的资源，加速页面加载。注意不能屏蔽 reCAPTCHA 相关域名。
var blockedURLs = []string{
	"*clarity.ms*",
	"*google-analytics*",
	"*googletagmanager*",
	"*/Content/images/covers/*",
	"*/Content/favicon/*",
	"*.woff", "*.woff2", "*.ttf",
	"*ubistatic2-a.akamaihd.net*",
	"*goadopt.io*",
}

// Browser 基于 chromedp 的兑换执行器，驱动 Hype Games 兑换表单。
type Browser struct {
	cfg config.RedeemConfig

	allocCtx  context.Context
	allocStop context.CancelFunc
}

// NewBrowser 创建浏览器执行器（未启动）。
func NewBrowser(cfg config.RedeemConfig) *Browser {
	return &Browser{cfg: cfg}
}

// Start 启动 Chromium 并预热一个标签页验证可用性。
func (b *Browser) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1280, 800),
	)
	b.allocCtx, b.allocStop = chromedp.NewExecAllocator(context.Background(), opts...)

	warmCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()
	startCtx, cancelStart := context.WithTimeout(warmCtx, 30*time.Second)
	defer cancelStart()

	if err := chromedp.Run(startCtx, chromedp.Navigate(b.cfg.BaseURL)); err != nil {
		// 站点暂时不可达不算启动失败，浏览器本身已拉起
		logger.Warn().Err(err).Msg("浏览器预热导航失败")
	}
	logger.Info().Bool("headless", b.cfg.Headless).Msg("浏览器执行器已启动")
	return nil
}

// Stop 关闭浏览器
func (b *Browser) Stop() {
	if b.allocStop != nil {
		b.allocStop()
	}
	logger.Info().Msg("浏览器执行器已关闭")
}

// Ready 浏览器是否已初始化（readiness 探针使用）。
func (b *Browser) Ready() bool {
	return b.allocCtx != nil
}

type netResponse struct {
	requestID network.RequestID
	status    int
}

// Redeem 执行一次完整的表单兑换流程。
func (b *Browser) Redeem(ctx context.Context, req Request) model.Result {
	start := time.Now()
	res := b.redeem(ctx, req)
	res.Duration = time.Since(start)
	return res
}

func (b *Browser) redeem(ctx context.Context, req Request) model.Result {
	log := logger.L.With().Str("pin", truncatePin(req.Pin)).Logger()

	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()
	// 调度器超时/取消传导到标签页，取消后 chromedp 会关闭该 tab
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	// 监听站点的两个关键接口：玩家 ID 校验与兑换确认
	verifyCh := make(chan netResponse, 1)
	confirmCh := make(chan netResponse, 1)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok {
			return
		}
		switch {
		case strings.Contains(resp.Response.URL, "validate/account"):
			select {
			case verifyCh <- netResponse{resp.RequestID, int(resp.Response.Status)}:
			default:
			}
		case strings.Contains(resp.Response.URL, "confirm"):
			select {
			case confirmCh <- netResponse{resp.RequestID, int(resp.Response.Status)}:
			default:
			}
		}
	})

	// --- 第 1 步：带着 PIN 打开兑换页 ---
	pinURL := fmt.Sprintf("%s/%s", strings.TrimRight(b.cfg.BaseURL, "/"), req.Pin)
	log.Info().Str("url", pinURL).Msg("打开兑换页")

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetBlockedURLS(blockedURLs),
		chromedp.Navigate(pinURL),
	); err != nil {
		return model.Fail(classifyRunError(err), err.Error())
	}

	// 等待卡片翻转（站点对 PIN 的自动校验通过后翻转）
	flipCtx, cancelFlip := context.WithTimeout(tabCtx, 15*time.Second)
	err := chromedp.Run(flipCtx, chromedp.WaitVisible(".card.back .body", chromedp.ByQuery))
	cancelFlip()
	if err != nil {
		var errText string
		_ = chromedp.Run(tabCtx, chromedp.Evaluate(
			`(document.querySelector('.text-danger, .error-message, .alert-danger')?.innerText || '').trim()`,
			&errText,
		))
		if errText != "" {
			return model.Fail(ClassifyPinError(errText), errText)
		}
		return model.Fail(model.ErrorTimeout, "timed out waiting for pin validation")
	}

	var productName string
	_ = chromedp.Run(tabCtx, chromedp.Evaluate(
		`(document.querySelector('.product-header h2')?.innerText || '').trim()`,
		&productName,
	))
	if productName != "" {
		log.Info().Str("product", productName).Msg("识别到商品")
	}

	// --- 第 2 步：一次 evaluate 填完整个表单 ---
	var fillStatus string
	if err := chromedp.Run(tabCtx,
		chromedp.Evaluate(fillFormJS(b.cfg, req.GameAccountID), &fillStatus),
	); err != nil {
		return failWithProduct(classifyRunError(err), err.Error(), productName)
	}
	if fillStatus == "NO_GAME_FIELD" {
		return failWithProduct(model.ErrorPageError, "GameAccountId field not found", productName)
	}

	// --- 第 3 步：校验玩家 ID ---
	log.Info().Str("game_account_id", req.GameAccountID).Msg("校验玩家 ID")
	if err := chromedp.Run(tabCtx, chromedp.Click("#btn-verify", chromedp.ByQuery)); err != nil {
		return failWithProduct(classifyRunError(err), err.Error(), productName)
	}

	verify, err := b.awaitResponse(tabCtx, verifyCh, 30*time.Second)
	if err != nil {
		return failWithProduct(model.ErrorTimeout, "timed out verifying game account id", productName)
	}

	var verifyBody struct {
		Success  bool   `json:"Success"`
		Message  string `json:"Message"`
		Username string `json:"Username"`
	}
	body, err := b.responseBody(tabCtx, verify.requestID)
	if err == nil {
		_ = json.Unmarshal(body, &verifyBody)
	}
	if !verifyBody.Success {
		msg := verifyBody.Message
		if msg == "" {
			msg = "game account id rejected"
		}
		return failWithProduct(model.ErrorInvalidID, msg, productName)
	}
	nickname := verifyBody.Username
	log.Info().Str("nickname", nickname).Msg("玩家 ID 校验通过")

	// --- 第 4 步：点击兑换 ---
	redeemCtx, cancelRedeem := context.WithTimeout(tabCtx, 5*time.Second)
	err = chromedp.Run(redeemCtx, chromedp.WaitVisible("#btn-redeem", chromedp.ByQuery))
	cancelRedeem()
	if err != nil {
		return failWithProduct(model.ErrorPageError, "redeem button did not appear", productName)
	}

	if err := chromedp.Run(tabCtx,
		chromedp.Evaluate(`document.querySelector('#btn-redeem')?.removeAttribute('disabled')`, nil),
		chromedp.Click("#btn-redeem", chromedp.ByQuery),
	); err != nil {
		return failWithProduct(classifyRunError(err), err.Error(), productName)
	}

	confirmStatus := -1
	if confirm, err := b.awaitResponse(tabCtx, confirmCh, 30*time.Second); err == nil {
		confirmStatus = confirm.status
	}

	// --- 第 5 步：确认结果 ---
	if confirmStatus == 200 {
		diamonds := ParseDiamonds(productName)
		log.Info().Str("nickname", nickname).Int("diamonds", diamonds).Msg("兑换成功")
		return model.Succeed(nickname, productName, diamonds)
	}

	// 兜底：确认接口状态异常时读取 DOM 文本判断
	var pageText string
	_ = chromedp.Run(tabCtx,
		chromedp.Sleep(300*time.Millisecond),
		chromedp.Evaluate(`document.body.innerText`, &pageText),
	)
	if ContainsSuccessText(pageText) {
		diamonds := ParseDiamonds(productName)
		log.Info().Str("nickname", nickname).Int("diamonds", diamonds).Msg("兑换成功（DOM 兜底）")
		return model.Succeed(nickname, productName, diamonds)
	}

	return failWithProduct(model.ErrorUnknown,
		"could not confirm redemption, pin possibly consumed", productName)
}

// awaitResponse 等待监听通道命中目标接口响应。
func (b *Browser) awaitResponse(ctx context.Context, ch <-chan netResponse, timeout time.Duration) (netResponse, error) {
	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(timeout):
		return netResponse{}, context.DeadlineExceeded
	case <-ctx.Done():
		return netResponse{}, ctx.Err()
	}
}

// responseBody 读取已完成请求的响应体。
func (b *Browser) responseBody(ctx context.Context, id network.RequestID) ([]byte, error) {
	var body []byte
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(id).Do(ctx)
		return err
	}))
	return body, err
}

// fillFormJS 生成填表脚本。原生 value setter + input/change 事件，
// 绕过站点对 React 受控输入的校验限制。
func fillFormJS(cfg config.RedeemConfig, gameAccountID string) string {
	return fmt.Sprintf(`(() => {
	const cookieBtn = document.querySelector('#adopt-accept-all-button');
	if (cookieBtn) cookieBtn.click();

	const gameInput = document.querySelector('#GameAccountId');
	if (!gameInput || gameInput.offsetParent === null) return 'NO_GAME_FIELD';

	function setVal(el, val) {
		const s = Object.getOwnPropertyDescriptor(HTMLInputElement.prototype, 'value').set;
		s.call(el, val);
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		el.dispatchEvent(new Event('keyup', { bubbles: true }));
	}

	const nameEl = document.querySelector('#Name');
	if (nameEl) setVal(nameEl, %q);

	const bornEl = document.querySelector('#BornAt');
	if (bornEl) { bornEl.focus(); setVal(bornEl, %q); }

	setVal(gameInput, %q);

	const nat = document.querySelector('#NationalityAlphaCode');
	if (nat) { nat.value = %q; nat.dispatchEvent(new Event('change', { bubbles: true })); }

	const privacy = document.querySelector('#privacy');
	if (privacy && !privacy.checked) { privacy.checked = true; privacy.dispatchEvent(new Event('change', { bubbles: true })); }

	const verifyBtn = document.querySelector('#btn-verify');
	if (verifyBtn) verifyBtn.removeAttribute('disabled');

	return 'OK';
})()`, cfg.Name, cfg.BornAt, gameAccountID, cfg.Nationality)
}

func failWithProduct(errType model.ErrorType, message, productName string) model.Result {
	res := model.Fail(errType, message)
	res.ProductName = productName
	return res
}

// classifyRunError 区分超时与页面技术故障。
func classifyRunError(err error) model.ErrorType {
	if errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return model.ErrorTimeout
	}
	return model.ErrorPageError
}

func truncatePin(pin string) string {
	if len(pin) <= 8 {
		return pin
	}
	return pin[:8] + "..."
}
