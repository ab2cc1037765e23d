package detect

import (
	"context"

	"github.com/hamed0406/envprobe/internal/capability"
	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/probe"
)

// Content-filter detection methods, in evaluation order.
const (
	MethodDOM     = "DOM"
	MethodNetwork = "Network"
	MethodLibrary = "Library"
	MethodCookie  = "Cookie"
)

// ContentFilter returns the ad-blocker detector as a probe function.
//
// The bait check and the blocked fetch are decisive when positive; a fetch
// that completes is inconclusive because the response cannot be inspected.
// The cookie round-trip only corroborates an existing positive.
func ContentFilter(src capability.Sources) probe.RunFunc {
	return func(ctx context.Context) probe.Value {
		out := domain.ContentFilter{Detected: domain.FilterNegative, Methods: []string{}}
		checked := 0

		if src.BaitHidden != nil {
			if hidden, err := src.BaitHidden(ctx); err == nil {
				checked++
				if hidden {
					out.Detected = domain.FilterPositive
					out.Methods = append(out.Methods, MethodDOM)
				}
			}
		}

		if out.Detected == domain.FilterNegative && src.BlockedFetch != nil {
			checked++
			if err := src.BlockedFetch(ctx); err != nil {
				out.Detected = domain.FilterPositive
				out.Methods = append(out.Methods, MethodNetwork)
			}
		}

		if out.Detected == domain.FilterNegative && src.BlockerLibrary != nil {
			if present, err := src.BlockerLibrary(ctx); err == nil {
				checked++
				if present {
					out.Detected = domain.FilterPositive
					out.Methods = append(out.Methods, MethodLibrary)
				}
			}
		}

		if src.CookieRoundTrip != nil {
			checked++
			if err := src.CookieRoundTrip(ctx); err != nil {
				out.CookiesBlocked = true
				if out.Detected == domain.FilterPositive {
					out.Methods = append(out.Methods, MethodCookie)
				}
			}
		}

		if checked == 0 {
			return probe.Unavailable("no content-filter capabilities")
		}
		return probe.Ok(out)
	}
}
