package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type errorPageData struct {
	Lang         string
	AppName      string
	Code         string
	Title        string
	Message      string
	Description  string
	DetailsLabel string
	HintTitle    string
	Hints        []string
	RetryLabel   string
	RetryURL     string
	HomeLabel    string
	Support      string
}

// errorPageTag picks the page language from ?lang= or Accept-Language.
func errorPageTag(r *http.Request) language.Tag {
	var tags []language.Tag
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			tags = append(tags, tag)
		}
	}
	if accept, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil {
		tags = append(tags, accept...)
	}
	_, index, _ := errorPageMatcher.Match(tags...)
	return errorPageLanguages[index]
}

// AuthErrorPageHandler renders a localized explanation of a login failure.
// Unknown codes fall back to the default message.
func (s *Server) AuthErrorPageHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("auth_error.html")
	if err != nil {
		panic("Failed to parse auth error template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("error")
		if _, known := errorMessages[code]; !known {
			code = defaultErrorCode
		}

		tag := errorPageTag(r)
		p := message.NewPrinter(tag)
		t := func(key string) string { return p.Sprintf(messageKey(key)) }

		data := errorPageData{
			Lang:         tag.String(),
			AppName:      s.config.GetAppName(),
			Code:         code,
			Title:        t("page.title"),
			Message:      t(code),
			Description:  r.URL.Query().Get("description"),
			DetailsLabel: t("page.details"),
			RetryLabel:   t("page.retry"),
			RetryURL:     s.config.GetDefaultCallbackPath(),
			HomeLabel:    t("page.home"),
			Support:      t("page.support"),
		}
		if hint, ok := errorHints[code]; ok {
			data.HintTitle = t(hint.title)
			for _, line := range hint.lines {
				data.Hints = append(data.Hints, t(line))
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("failed to render auth error page")
		}
	}
}
