package server

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultErrorCode = "Default"

var errorPageLanguages = []language.Tag{
	language.English,
	language.SimplifiedChinese,
}

var errorPageMatcher = language.NewMatcher(errorPageLanguages)

// errorMessages maps every known error code to its English and Chinese text.
var errorMessages = map[string][2]string{
	"Configuration":              {"Server configuration error, please contact the administrator", "服务器配置错误，请联系管理员"},
	"AccessDenied":               {"Access denied, you may not have the required permissions", "访问被拒绝，您可能没有必要的权限"},
	"Verification":               {"Verification failed, please try again", "验证失败，请重试"},
	"Default":                    {"An unknown error occurred during sign-in", "登录过程中发生未知错误"},
	"OAuthSignin":                {"Could not start the OAuth sign-in", "OAuth 登录初始化失败"},
	"OAuthCallback":              {"The OAuth callback could not be processed", "OAuth 回调处理失败"},
	"OAuthCreateAccount":         {"Could not create the OAuth account", "创建 OAuth 账户失败"},
	"EmailCreateAccount":         {"Could not create the email account", "创建邮箱账户失败"},
	"Callback":                   {"The callback could not be processed", "回调处理失败"},
	"OAuthAccountNotLinked":      {"This OAuth account is not linked, sign in with the same account as before", "OAuth 账户未关联，请使用相同的账户登录"},
	"EmailSignin":                {"Email sign-in failed", "邮箱登录失败"},
	"CredentialsSignin":          {"Sign-in failed, check your user name and password", "凭证登录失败，请检查用户名和密码"},
	"SessionRequired":            {"You need to sign in to view this page", "需要登录才能访问此页面"},
	"unable_to_find_application": {"Application not found: check the Application ID configuration", "无法找到应用程序：请检查 Application ID 配置"},
	"invalid_request":            {"Invalid request: check the OAuth parameters", "无效请求：请检查 OAuth 参数配置"},
	"unauthorized_client":        {"Unauthorized client: check the Client ID and Client Secret", "未授权的客户端：请检查 Client ID 和 Client Secret"},
	"unsupported_response_type":  {"Unsupported response type: check the OAuth configuration", "不支持的响应类型：请检查 OAuth 配置"},
	"invalid_scope":              {"Invalid scope: check the application permissions", "无效的权限范围：请检查应用权限配置"},
	"server_error":               {"Server error: the Amazon OAuth service is temporarily unavailable", "服务器错误：Amazon OAuth 服务暂时不可用"},
	"access_denied":              {"Authorization was cancelled or denied", "授权已被取消或拒绝"},
	"missing_parameters":         {"The authorization response was incomplete", "授权响应缺少必要参数"},
	"token_exchange_failed":      {"Could not exchange the authorization code", "授权码换取令牌失败"},
	"profile_fetch_failed":       {"Could not read your Amazon profile", "获取 Amazon 用户资料失败"},
	"persist_failed":             {"Could not save your account", "保存账户信息失败"},
	"session_mint_failed":        {"Could not create your session", "创建会话失败"},
	"callback_error":             {"An unexpected error occurred while signing in", "登录回调发生意外错误"},
}

// errorHints are remediation steps shown for selected codes.
var errorHints = map[string]struct {
	title string
	lines []string
}{
	"AccessDenied": {
		title: "hint.causes",
		lines: []string{"hint.not_seller", "hint.missing_permissions", "hint.cancelled"},
	},
	"OAuthCallback": {
		title: "hint.solutions",
		lines: []string{"hint.check_callback", "hint.check_app", "hint.contact_admin"},
	},
}

// pageCopy is the fixed text of the error page.
var pageCopy = map[string][2]string{
	"page.title":               {"Sign-in failed", "登录失败"},
	"page.retry":               {"Sign in again", "重新登录"},
	"page.home":                {"Back to home", "返回首页"},
	"page.support":             {"If the problem persists, please contact support", "如果问题持续存在，请联系技术支持"},
	"page.details":             {"Details", "详细信息"},
	"hint.causes":              {"Possible causes:", "可能的原因："},
	"hint.solutions":           {"Possible solutions:", "可能的解决方案："},
	"hint.not_seller":          {"Your Amazon account is not a seller account", "您的 Amazon 账户不是卖家账户"},
	"hint.missing_permissions": {"The application was not granted the required permissions", "应用程序没有获得必要的权限"},
	"hint.cancelled":           {"You cancelled the authorization", "您取消了授权过程"},
	"hint.check_callback":      {"Check that the callback URL is configured correctly", "检查回调 URL 配置是否正确"},
	"hint.check_app":           {"Confirm the OAuth application settings", "确认 OAuth 应用程序设置"},
	"hint.contact_admin":       {"Contact the system administrator", "联系系统管理员"},
}

func init() {
	for _, catalog := range []map[string][2]string{errorMessages, pageCopy} {
		for key, text := range catalog {
			_ = message.SetString(language.English, messageKey(key), text[0])
			_ = message.SetString(language.SimplifiedChinese, messageKey(key), text[1])
		}
	}
	// callback failures share the OAuthCallback remediation
	for _, code := range []string{"Callback", "callback_error", "token_exchange_failed"} {
		errorHints[code] = errorHints["OAuthCallback"]
	}
}

func messageKey(key string) string {
	return "auth.error." + key
}
