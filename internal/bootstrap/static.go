package bootstrap

// staticTable is the compiled-in table of TLD -> RDAP base URL, used before
// ever consulting the dynamic bootstrap document. It covers the handful of
// gTLDs/ccTLDs with well-known, stable RDAP operators; anything absent here
// falls through to the IANA bootstrap document (if enabled) or is reported
// as EndpointUnavailable.
var staticTable = map[string]string{
	"com":  "https://rdap.verisign.com/com/v1",
	"net":  "https://rdap.verisign.com/net/v1",
	"org":  "https://rdap.publicinterestregistry.org/rdap",
	"info": "https://rdap.identitydigital.services/rdap",
	"biz":  "https://rdap.nic.biz",
	"io":   "https://rdap.nic.io",
	"co":   "https://rdap.nic.co",
	"me":   "https://rdap.nic.me",
	"dev":  "https://rdap.nic.google",
	"app":  "https://rdap.nic.google",
	"xyz":  "https://rdap.centralnic.com/xyz",
	"us":   "https://rdap.nic.us",
	"uk":   "https://rdap.nominet.uk",
	"de":   "https://rdap.denic.de",
	"ai":   "https://rdap.nic.ai",
}

// staticURLTemplate returns the URL template for tld (with the
// "/domain/{domain}" path appended), and whether the TLD is known.
func staticURLTemplate(tld string) (string, bool) {
	base, ok := staticTable[tld]
	if !ok {
		return "", false
	}
	return base + "/domain/{domain}", true
}
