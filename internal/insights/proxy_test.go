package insights_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/huddle/internal/insights"
	. "github.com/smartystreets/goconvey/convey"
)

func TestForward(t *testing.T) {
	Convey("Given an upstream that answers successfully", t, func() {
		var gotKey, gotBody string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.URL.Query().Get("key")
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			fmt.Fprint(w, `{"candidates":[{"content":"looks strong"}]}`)
		}))
		defer srv.Close()

		proxy := insights.NewProxy("secret", insights.WithEndpoint(srv.URL))

		Convey("When forwarding a request", func() {
			res, err := proxy.Forward(context.Background(), []byte(`{"contents":[]}`))

			Convey("Then the answer is relayed with the key injected server-side", func() {
				So(err, ShouldBeNil)
				So(res.StatusCode, ShouldEqual, http.StatusOK)
				So(string(res.Body), ShouldContainSubstring, "looks strong")
				So(gotKey, ShouldEqual, "secret")
				So(gotBody, ShouldEqual, `{"contents":[]}`)
			})
		})
	})

	Convey("Given an upstream that rate limits before recovering", t, func() {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"candidates":[]}`)
		}))
		defer srv.Close()

		proxy := insights.NewProxy("secret",
			insights.WithEndpoint(srv.URL),
			insights.WithBackoff(time.Millisecond))

		Convey("When forwarding a request", func() {
			res, err := proxy.Forward(context.Background(), []byte(`{}`))

			Convey("Then retries absorb the rate limiting", func() {
				So(err, ShouldBeNil)
				So(res.StatusCode, ShouldEqual, http.StatusOK)
				So(calls, ShouldEqual, 3)
			})
		})
	})

	Convey("Given an upstream that never stops rate limiting", t, func() {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		proxy := insights.NewProxy("secret",
			insights.WithEndpoint(srv.URL),
			insights.WithMaxAttempts(3),
			insights.WithBackoff(time.Millisecond))

		Convey("When forwarding a request", func() {
			_, err := proxy.Forward(context.Background(), []byte(`{}`))

			Convey("Then the retry budget bounds the attempts", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, insights.ErrRateLimited)
				So(calls, ShouldEqual, 3)
			})
		})
	})

	Convey("Given an upstream that fails terminally", t, func() {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"bad request"}}`)
		}))
		defer srv.Close()

		proxy := insights.NewProxy("secret",
			insights.WithEndpoint(srv.URL),
			insights.WithBackoff(time.Millisecond))

		Convey("When forwarding a request", func() {
			res, err := proxy.Forward(context.Background(), []byte(`{}`))

			Convey("Then the status passes through without retrying", func() {
				So(err, ShouldBeNil)
				So(res.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(string(res.Body), ShouldContainSubstring, "bad request")
				So(calls, ShouldEqual, 1)
			})
		})
	})
}
