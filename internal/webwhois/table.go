package webwhois

import "sync"

var tableMu sync.RWMutex

// entry describes how to query and parse a registry's web-based WHOIS
// form for one TLD.
type entry struct {
	// QueryURLTemplate uses the literal placeholder "{domain}".
	QueryURLTemplate string
	// ResultSelector is a goquery selector identifying the element that
	// holds the result text; empty means "use the whole page text".
	ResultSelector string
}

// table is the compiled-in TLD -> web-WHOIS form mapping, for ccTLD
// registries with no port-43 listener. It is intentionally small: most
// TLDs are served by internal/whois; this is a last-resort fallback.
var table = map[string]entry{
	"ly": {QueryURLTemplate: "https://www.nic.ly/lookup?domain={domain}", ResultSelector: "#whois-result"},
	"ps": {QueryURLTemplate: "https://www.pnina.ps/whois?domain={domain}", ResultSelector: ".whois-output"},
}

func tableFor(tld string) (entry, bool) {
	tableMu.RLock()
	defer tableMu.RUnlock()
	e, ok := table[tld]
	return e, ok
}

// RegisterEntry adds or overrides a single TLD's web-WHOIS form mapping at
// runtime.
func RegisterEntry(tld, queryURLTemplate, resultSelector string) {
	tableMu.Lock()
	defer tableMu.Unlock()
	table[tld] = entry{QueryURLTemplate: queryURLTemplate, ResultSelector: resultSelector}
}

// RemoveEntry deletes a TLD's web-WHOIS mapping, if present.
func RemoveEntry(tld string) {
	tableMu.Lock()
	defer tableMu.Unlock()
	delete(table, tld)
}
