package calendar

import (
	"fmt"
	"strings"
	"time"

	exchcal "github.com/scmhub/calendar"
)

// Ticker suffix to ISO 10383 MIC, as understood by scmhub/calendar.
var suffixMIC = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".BR": "xbru",
	".MI": "xmil",
	".MC": "xmad",
	".ST": "xsto",
	".CO": "xcse",
	".HE": "xhel",
	".VI": "xwbo",
	".SW": "xswx",
	".TO": "xtse",
	".V":  "xtsx",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

// -----------------------------------------------------------------------------

// MICForSymbol maps a ticker such as "VOD.L" to its exchange MIC. A bare
// lowercase MIC is passed through; anything else defaults to NYSE.
func MICForSymbol(symbol string) string {
	if dot := strings.LastIndex(symbol, "."); dot >= 0 {
		if mic, ok := suffixMIC[strings.ToUpper(symbol[dot:])]; ok {
			return mic
		}
		return "xnys"
	}
	if len(symbol) == 4 && strings.ToLower(symbol) == symbol && strings.HasPrefix(symbol, "x") {
		return symbol
	}
	return "xnys"
}

// -----------------------------------------------------------------------------

// ExchangeHolidays derives a holiday table for [fromYear, toYear] from the
// exchange calendar library: every weekday it does not consider a business
// day becomes a closure. Early closes are not derived and must come from
// configuration.
func ExchangeHolidays(mic string, fromYear, toYear int) (map[string]string, *time.Location, error) {
	if toYear < fromYear {
		return nil, nil, fmt.Errorf("invalid year range %d-%d", fromYear, toYear)
	}

	cal := exchcal.GetCalendar(mic)
	if cal == nil {
		return nil, nil, fmt.Errorf("no exchange calendar for MIC %q", mic)
	}
	loc := cal.Loc
	if loc == nil {
		loc = time.UTC
	}

	holidays := make(map[string]string)
	for d := NewDate(fromYear, time.January, 1); d <= NewDate(toYear, time.December, 31); d++ {
		if d.IsWeekend() {
			continue
		}
		y, m, day := d.YMD()
		// noon local keeps the probe away from any DST edge
		if !cal.IsBusinessDay(time.Date(y, m, day, 12, 0, 0, 0, loc)) {
			holidays[d.Key()] = fmt.Sprintf("%s holiday", strings.ToUpper(mic))
		}
	}
	return holidays, loc, nil
}
