package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reddragonlabs/dragon-signal/pkg/logger"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// SendToWebhook 把告警载荷以JSON POST到指定的Webhook URL
func SendToWebhook(payload any, webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("Webhook URL 为空")
	}
	if payload == nil {
		logger.Warn("尝试发送空载荷到Webhook，已跳过")
		return nil // 不视为错误，但记录警告
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error(fmt.Sprintf("序列化Webhook载荷失败: %v", err))
		return fmt.Errorf("序列化Webhook载荷失败: %w", err)
	}

	req, err := http.NewRequest("POST", webhookURL, bytes.NewBuffer(body))
	if err != nil {
		logger.Error(fmt.Sprintf("创建Webhook请求失败: %v", err))
		return fmt.Errorf("创建Webhook请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.Error(fmt.Sprintf("发送Webhook请求失败: %v", err))
		return fmt.Errorf("发送Webhook请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		// 响应体可能含%，不能作为格式串
		errMsg := fmt.Sprintf("Webhook返回错误状态码 %d, 响应: %s", resp.StatusCode, string(respBody))
		logger.Error(errMsg)
		return errors.New(errMsg)
	}

	logger.Info("成功发送告警到Webhook")
	return nil
}
