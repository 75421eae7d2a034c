// internal/handlers/common.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/webutil"
)

// Clock は「今」を返します。テストでは固定の時刻を渡します。
type Clock func() time.Time

// Calendar はエンジンに渡す today / now を決めます。
type Calendar struct {
	clock Clock
	loc   *time.Location
	// allowClientDates が true ならリクエストの date 指定を受け付ける (開発用)
	allowClientDates bool
}

func NewCalendar(clock Clock, loc *time.Location, allowClientDates bool) Calendar {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{clock: clock, loc: loc, allowClientDates: allowClientDates}
}

func (c Calendar) now() time.Time {
	return c.clock().In(c.loc)
}

func (c Calendar) today() model.Date {
	return model.DateOf(c.now())
}

// dateOrToday はクライアント指定の日付 (許可時のみ) か今日を返します。
func (c Calendar) dateOrToday(raw string) (model.Date, error) {
	if raw == "" || !c.allowClientDates {
		return c.today(), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, model.NewAppError("INVALID_DATE", "日付はYYYY-MM-DD形式で指定してください。", "date", err)
	}
	return d, nil
}

// requestScope はスコープとハンドラ名付きのロガーを返します。失敗時はレスポンスを書いて false。
func requestScope(w http.ResponseWriter, r *http.Request, handler string) (model.ScopeID, *slog.Logger, bool) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", handler))
	scope, err := middleware.GetScopeFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return "", logger, false
	}
	return scope, logger, true
}

// intQuery はクエリパラメータを整数として読みます。未指定なら def。
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewAppError("INVALID_QUERY", name+"は整数で指定してください。", name, model.ErrInvalidInput)
	}
	return n, nil
}

func requestLogger(r *http.Request, handler string) *slog.Logger {
	return middleware.GetLogger(r.Context()).With(slog.String("handler", handler))
}
