package gateway

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SignParams returns a copy of params with app_id, timestamp and sign
// attached, matching the gateway's signing contract bit for bit:
// sort by key, RFC3986 form-encode, md5 hex, then HMAC-SHA256 hex with the
// shared secret.
func SignParams(params map[string]any, appID, secret string, now time.Time) map[string]any {
	signed := make(map[string]any, len(params)+3)
	for key, value := range params {
		signed[key] = value
	}
	signed["app_id"] = appID
	signed["timestamp"] = now.Unix()
	signed["sign"] = Signature(signed, secret)
	return signed
}

// Signature computes the sign value over the given parameters. The sign key
// itself is ignored so the function can be reused for verification.
func Signature(params map[string]any, secret string) string {
	digest := md5.Sum([]byte(encodeParams(params)))
	presign := hex.EncodeToString(digest[:])

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(presign))
	return hex.EncodeToString(mac.Sum(nil))
}

// encodeParams form-encodes the parameters sorted by key, percent-encoding
// reserved characters with space as %20, never +.
func encodeParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == "sign" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(key))
		b.WriteByte('=')
		b.WriteString(escape(paramString(params[key])))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func paramString(value any) string {
	switch cast := value.(type) {
	case string:
		return cast
	case int:
		return strconv.Itoa(cast)
	case int64:
		return strconv.FormatInt(cast, 10)
	case bool:
		if cast {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return cast.String()
	default:
		return fmt.Sprint(cast)
	}
}
