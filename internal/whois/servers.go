package whois

import (
	"sort"
	"sync"
)

var serverTableMu sync.RWMutex

// serverTable is the compiled-in TLD -> WHOIS host (port 43) mapping.
// Unlisted TLDs report NoTextualServer.
var serverTable = map[string]string{
	"com":  "whois.verisign-grs.com",
	"net":  "whois.verisign-grs.com",
	"org":  "whois.pir.org",
	"info": "whois.afilias.net",
	"biz":  "whois.biz",
	"io":   "whois.nic.io",
	"co":   "whois.nic.co",
	"me":   "whois.nic.me",
	"ai":   "whois.nic.ai",
	"sh":   "whois.nic.sh",
	"so":   "whois.nic.so",
	"xyz":  "whois.nic.xyz",
	"us":   "whois.nic.us",
	"uk":   "whois.nic.uk",
	"de":   "whois.denic.de",
	"fr":   "whois.nic.fr",
	"jp":   "whois.jprs.jp",
	"kr":   "whois.kr",
	"cn":   "whois.cnnic.cn",
	"ru":   "whois.tcinet.ru",
	"ca":   "whois.cira.ca",
	"au":   "whois.auda.org.au",
	"cc":   "ccwhois.verisign-grs.com",
	"tv":   "tvwhois.verisign-grs.com",
	"mobi": "whois.dotmobiregistry.net",
	"dev":  "whois.nic.google",
	"app":  "whois.nic.google",
	"hk":   "whois.hkirc.hk",
}

func serverFor(tld string) (string, bool) {
	serverTableMu.RLock()
	defer serverTableMu.RUnlock()
	host, ok := serverTable[tld]
	return host, ok
}

// RegisterServer adds or overrides a single TLD -> host mapping at
// runtime, letting operators extend port-43 coverage without a code
// change, the same way LoadSignatureFile extends the parser's patterns.
func RegisterServer(tld, host string) {
	serverTableMu.Lock()
	defer serverTableMu.Unlock()
	serverTable[tld] = host
}

// RemoveServer deletes a TLD's WHOIS host mapping, if present.
func RemoveServer(tld string) {
	serverTableMu.Lock()
	defer serverTableMu.Unlock()
	delete(serverTable, tld)
}

// KnownTLDs returns every TLD with a compiled-in or runtime-registered
// port-43 server, sorted. Used to expand Configuration.AllTLDs.
func KnownTLDs() []string {
	serverTableMu.RLock()
	defer serverTableMu.RUnlock()
	out := make([]string, 0, len(serverTable))
	for tld := range serverTable {
		out = append(out, tld)
	}
	sort.Strings(out)
	return out
}
