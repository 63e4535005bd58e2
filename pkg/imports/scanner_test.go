package imports

import (
	"reflect"
	"testing"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "no imports",
			source: "x = 1\nprint(x)\n",
			want:   nil,
		},
		{
			name:   "empty source",
			source: "",
			want:   nil,
		},
		{
			name:   "simple import",
			source: "import numpy\n",
			want:   []string{"numpy"},
		},
		{
			name:   "dotted import keeps root",
			source: "import numpy.linalg\n",
			want:   []string{"numpy"},
		},
		{
			name:   "from import",
			source: "from pandas import DataFrame\n",
			want:   []string{"pandas"},
		},
		{
			name:   "from dotted import",
			source: "from sklearn.model_selection import train_test_split\n",
			want:   []string{"sklearn"},
		},
		{
			name:   "multiple modules one statement",
			source: "import numpy as np, requests, os\n",
			want:   []string{"numpy", "requests"},
		},
		{
			name:   "stdlib excluded",
			source: "import os\nimport sys\nimport json\n",
			want:   nil,
		},
		{
			name:   "relative imports excluded",
			source: "from . import helpers\nfrom .models import User\nfrom ..pkg import thing\n",
			want:   nil,
		},
		{
			name:   "nested import included",
			source: "def f():\n    import torch\n    return torch\n",
			want:   []string{"torch"},
		},
		{
			name:   "conditional import included",
			source: "try:\n    import ujson\nexcept ImportError:\n    import json\n",
			want:   []string{"ujson"},
		},
		{
			name:   "first seen order preserved",
			source: "import zlib_ng\nimport aiohttp\nimport zlib_ng\n",
			want:   []string{"zlib_ng", "aiohttp"},
		},
		{
			name:   "import inside docstring ignored",
			source: "\"\"\"\nimport fakepkg\n\"\"\"\nimport requests\n",
			want:   []string{"requests"},
		},
		{
			name:   "comment ignored",
			source: "# import fakepkg\nimport flask  # web framework\n",
			want:   []string{"flask"},
		},
		{
			name:   "semicolon separated",
			source: "import numpy; import requests\n",
			want:   []string{"numpy", "requests"},
		},
		{
			name:   "backslash continuation",
			source: "import \\\n    scipy\n",
			want:   []string{"scipy"},
		},
		{
			name:   "syntax error after imports keeps found statements",
			source: "import numpy\ndef broken(:\nimport requests\n",
			want:   []string{"numpy", "requests"},
		},
		{
			name:   "importlib style call not matched",
			source: "mod = __import__('secretpkg')\n",
			want:   nil,
		},
		{
			name:   "binary garbage yields nothing",
			source: "\x00\x01\x02\xff",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.source)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanParenthesisedFromImport(t *testing.T) {
	source := "from flask import (\n    Flask,\n    request,\n)\n"
	got := Scan(source)
	want := []string{"flask"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestIsStandardLibrary(t *testing.T) {
	for _, name := range []string{"os", "sys", "json", "asyncio", "typing", "__future__"} {
		if !IsStandardLibrary(name) {
			t.Errorf("IsStandardLibrary(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"numpy", "requests", "flask", ""} {
		if IsStandardLibrary(name) {
			t.Errorf("IsStandardLibrary(%q) = true, want false", name)
		}
	}
}
