package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// snapshotSchema validates scene documents before unmarshaling so malformed
// content fails loudly at load time instead of as NaN geometry mid-frame.
const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "dimensions"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "dimensions": {
      "type": "object",
      "required": ["rect", "gridSize"],
      "properties": {
        "rect": {"$ref": "#/definitions/rect"},
        "playable": {"$ref": "#/definitions/rect"},
        "gridType": {"enum": ["square", "hexRow", "hexCol", "gridless"]},
        "gridSize": {"type": "number", "exclusiveMinimum": 0},
        "distance": {"type": "number", "minimum": 0}
      }
    },
    "walls": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "x0", "y0", "x1", "y1"],
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "x0": {"type": "number"},
          "y0": {"type": "number"},
          "x1": {"type": "number"},
          "y1": {"type": "number"},
          "sight": {"$ref": "#/definitions/restriction"},
          "move": {"$ref": "#/definitions/restriction"},
          "sound": {"$ref": "#/definitions/restriction"},
          "light": {"$ref": "#/definitions/restriction"},
          "door": {"enum": ["none", "door", "secret"]},
          "doorState": {"enum": ["closed", "open", "locked"]},
          "direction": {"enum": ["both", "left", "right"]}
        }
      }
    },
    "lights": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "x", "y"],
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "dim": {"type": "number", "minimum": 0},
          "bright": {"type": "number", "minimum": 0}
        }
      }
    },
    "tokens": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "x", "y"],
        "properties": {
          "id": {"type": "integer", "minimum": 0}
        }
      }
    },
    "darknessLevel": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "definitions": {
    "rect": {
      "type": "object",
      "required": ["x", "y", "width", "height"],
      "properties": {
        "x": {"type": "number"},
        "y": {"type": "number"},
        "width": {"type": "number", "minimum": 0},
        "height": {"type": "number", "minimum": 0}
      }
    },
    "restriction": {"enum": ["none", "normal", "limited", "proximity", "distance"]}
  }
}`

// LoadSnapshot validates and parses a scene document.
func LoadSnapshot(data []byte) (*Snapshot, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(snapshotSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate scene: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		msg := "scene document invalid"
		if len(errs) > 0 {
			msg = fmt.Sprintf("scene document invalid: %s", errs[0])
		}
		return nil, fmt.Errorf("%s", msg)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if s.Dimensions.Playable.Width == 0 && s.Dimensions.Playable.Height == 0 {
		s.Dimensions.Playable = s.Dimensions.Rect
	}
	if s.Dimensions.GridType == "" {
		s.Dimensions.GridType = GridSquare
	}
	if s.Dimensions.Distance == 0 {
		s.Dimensions.Distance = 1
	}
	return &s, nil
}

// LoadSnapshotFromFile reads and parses a scene document from disk.
func LoadSnapshotFromFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	return LoadSnapshot(data)
}
