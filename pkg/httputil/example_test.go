package httputil_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/matzehuels/heatmap/pkg/httputil"
)

func ExampleFetcher() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[0, 0, 10, 10]")
	}))
	defer srv.Close()

	dir, _ := os.MkdirTemp("", "heatmap-http")
	defer os.RemoveAll(dir)

	store, err := httputil.NewCache(dir, 24*time.Hour)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	f := httputil.NewFetcher(store)

	data, err := f.Fetch(context.Background(), srv.URL+"/points.json", false)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(string(data))
	// Output: [0, 0, 10, 10]
}

func ExampleCache_miss() {
	dir, _ := os.MkdirTemp("", "heatmap-http-miss")
	defer os.RemoveAll(dir)

	store, _ := httputil.NewCache(dir, time.Hour)
	_, ok, err := store.Get("https://example.com/nothing.png")
	fmt.Println("Found:", ok)
	fmt.Println("Error:", err)
	// Output:
	// Found: false
	// Error: <nil>
}
