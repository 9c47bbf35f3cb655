package shopping

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"

	domain "github.com/shoplist/shopping-gateway/internal/domain/shopping"
)

// DecodeList parses a list backend body. Two shapes are accepted: an array
// of {"name", "quantity"} objects, or an object mapping names to
// quantities, kept in document order.
func DecodeList(body []byte) ([]domain.Item, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	var items []domain.Item
	switch trimmed[0] {
	case '[':
		if err := sonic.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode list array: %w", err)
		}
	case '{':
		decoded, err := decodeObject(trimmed)
		if err != nil {
			return nil, err
		}
		items = decoded
	default:
		return nil, fmt.Errorf("list body is neither an array nor an object")
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

func decodeObject(body []byte) ([]domain.Item, error) {
	root, err := sonic.Get(body)
	if err != nil {
		return nil, fmt.Errorf("decode list object: %w", err)
	}

	var (
		items   []domain.Item
		scanErr error
	)
	err = root.ForEach(func(path ast.Sequence, node *ast.Node) bool {
		if path.Key == nil {
			scanErr = fmt.Errorf("decode list object: missing key at %d", path.Index)
			return false
		}
		if node.TypeSafe() != ast.V_NUMBER {
			scanErr = fmt.Errorf("decode list object: quantity of %q is not a number", *path.Key)
			return false
		}
		quantity, err := node.Int64()
		if err != nil {
			scanErr = fmt.Errorf("decode list object: quantity of %q: %w", *path.Key, err)
			return false
		}
		items = append(items, domain.Item{Name: *path.Key, Quantity: int(quantity)})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("decode list object: %w", err)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return items, nil
}
