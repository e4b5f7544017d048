package gcp

import (
	"errors"
	"testing"
)

func clearStorageEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"OBJECT_STORAGE_MODE", "STORAGE_EMULATOR_HOST", "RECIPE_IMAGES_BUCKET", "RECIPE_IMAGES_CDN_DOMAIN", "OBJECT_STORAGE_PUBLIC_BASE_URL"} {
		t.Setenv(name, "")
	}
}

func TestResolveObjectStorageConfigDefaultsToGCS(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("RECIPE_IMAGES_BUCKET", "recipevault-images")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("Mode = %q", cfg.Mode)
	}
	if cfg.ModeFallback {
		t.Fatalf("default gcs mode is not a fallback")
	}
}

func TestResolveObjectStorageConfigEmulatorFallback(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("RECIPE_IMAGES_BUCKET", "recipevault-images")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator {
		t.Fatalf("Mode = %q", cfg.Mode)
	}
	if !cfg.ModeFallback {
		t.Fatalf("emulator host without explicit mode must be flagged as fallback")
	}
}

func TestResolveObjectStorageConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		code ObjectStorageConfigErrorCode
	}{
		{
			name: "invalid mode",
			env:  map[string]string{"OBJECT_STORAGE_MODE": "s3", "RECIPE_IMAGES_BUCKET": "b"},
			code: ObjectStorageConfigErrorInvalidMode,
		},
		{
			name: "missing bucket",
			env:  map[string]string{"OBJECT_STORAGE_MODE": "gcs"},
			code: ObjectStorageConfigErrorMissingBucket,
		},
		{
			name: "emulator without host",
			env:  map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator", "RECIPE_IMAGES_BUCKET": "b"},
			code: ObjectStorageConfigErrorMissingEmulatorHost,
		},
		{
			name: "emulator with relative host",
			env:  map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator", "RECIPE_IMAGES_BUCKET": "b", "STORAGE_EMULATOR_HOST": "fake-gcs:4443"},
			code: ObjectStorageConfigErrorInvalidEmulatorHost,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearStorageEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := ResolveObjectStorageConfigFromEnv()
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Code != tc.code {
				t.Fatalf("got %v, want code %q", err, tc.code)
			}
		})
	}
}

func TestPublicURLShapes(t *testing.T) {
	cases := []struct {
		name string
		bs   bucketService
		key  string
		want string
	}{
		{
			name: "cdn domain wins",
			bs:   bucketService{bucket: "b", cdnDomain: "img.example.com", mode: ObjectStorageModeGCS},
			key:  "recipes/r1/cover-1.jpg",
			want: "https://img.example.com/recipes/r1/cover-1.jpg",
		},
		{
			name: "emulator media url",
			bs:   bucketService{bucket: "b", mode: ObjectStorageModeGCSEmulator, emulatorHost: "http://fake-gcs:4443"},
			key:  "recipes/r1/cover-1.jpg",
			want: "http://fake-gcs:4443/storage/v1/b/b/o/recipes%2Fr1%2Fcover-1.jpg?alt=media",
		},
		{
			name: "public base url",
			bs:   bucketService{bucket: "b", mode: ObjectStorageModeGCS, publicBaseURL: "https://media.example.com"},
			key:  "recipes/r1/cover-1.jpg",
			want: "https://media.example.com/b/recipes/r1/cover-1.jpg",
		},
		{
			name: "google default",
			bs:   bucketService{bucket: "b", mode: ObjectStorageModeGCS},
			key:  "recipes/r1/cover-1.jpg",
			want: "https://storage.googleapis.com/b/recipes/r1/cover-1.jpg",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bs.PublicURL(tc.key); got != tc.want {
				t.Fatalf("PublicURL = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOwnsURLInvertsPublicURL(t *testing.T) {
	services := []struct {
		name string
		bs   bucketService
	}{
		{"cdn", bucketService{bucket: "b", cdnDomain: "img.example.com", mode: ObjectStorageModeGCS}},
		{"emulator", bucketService{bucket: "b", mode: ObjectStorageModeGCSEmulator, emulatorHost: "http://fake-gcs:4443"}},
		{"public base", bucketService{bucket: "b", mode: ObjectStorageModeGCS, publicBaseURL: "https://media.example.com"}},
		{"google default", bucketService{bucket: "b", mode: ObjectStorageModeGCS}},
	}
	const key = "recipes/r1/cover-1.jpg"
	for _, tc := range services {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.bs.PublicURL(key)
			got, owned := tc.bs.OwnsURL(u)
			if !owned {
				t.Fatalf("OwnsURL(%q) not owned", u)
			}
			if got != key {
				t.Fatalf("OwnsURL(%q) = %q, want %q", u, got, key)
			}
		})
	}
}

func TestOwnsURLForeign(t *testing.T) {
	bs := bucketService{bucket: "b", cdnDomain: "img.example.com", mode: ObjectStorageModeGCS}
	for _, raw := range []string{"", "https://elsewhere.com/x.jpg", "https://storage.googleapis.com/other-bucket/x.jpg"} {
		if _, owned := bs.OwnsURL(raw); owned {
			t.Errorf("OwnsURL(%q) must not be owned", raw)
		}
	}
}
