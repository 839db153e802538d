package keyboard

import (
	"fmt"
	"strconv"
	"strings"
)

// Форматы callback data
const (
	Noop         = "noop"
	NewKeyClass  = "newkey:"     // newkey:3:2024
	KeysPage     = "keys_page:"  // keys_page:1
	KeyCard      = "key_card:"   // key_card:ABCDEFGH
	KeyDisable   = "key_off:"    // key_off:ABCDEFGH
	SearchMore   = "search_more" // следующая страница поиска
	SearchFinish = "search_done"
)

func NewKeyData(classNumber, gradYear int) string {
	return fmt.Sprintf("%s%d:%d", NewKeyClass, classNumber, gradYear)
}

// ParseClass разбирает "3:2024" после префикса
func ParseClass(data, prefix string) (classNumber, gradYear int, err error) {
	parts := strings.Split(strings.TrimPrefix(data, prefix), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid class callback %q", data)
	}
	if classNumber, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("parse class number: %w", err)
	}
	if gradYear, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("parse grad year: %w", err)
	}
	return classNumber, gradYear, nil
}

// ParseInt целое значение после префикса
func ParseInt(data, prefix string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(data, prefix))
}
