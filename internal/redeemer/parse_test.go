package redeemer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jadhstore/hypeauto/internal/model"
)

func TestParseDiamonds(t *testing.T) {
	tests := []struct {
		product string
		want    int
	}{
		{"310 Diamantes - Free Fire", 310},
		{"Free Fire - 2180 diamantes", 2180},
		{"100 Diamonds", 100},
		{"5600  DIAMONDS pack", 5600},
		{"Tarjeta de regalo", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDiamonds(tt.product))
		})
	}
}

func TestClassifyPinError(t *testing.T) {
	tests := []struct {
		text string
		want model.ErrorType
	}{
		{"El PIN ha expirado", model.ErrorPinExpired},
		{"This code has expired", model.ErrorPinExpired},
		{"Cupón vencido", model.ErrorPinExpired},
		{"El PIN ya fue canjeado", model.ErrorPinAlreadyUsed},
		{"Code already redeemed", model.ErrorPinAlreadyUsed},
		{"PIN usado previamente", model.ErrorPinAlreadyUsed},
		// 无法识别的文案按过期处理
		{"Algo salió mal", model.ErrorPinExpired},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPinError(tt.text))
		})
	}
}

func TestContainsSuccessText(t *testing.T) {
	assert.True(t, ContainsSuccessText("¡Canje exitoso! Los diamantes fueron entregados"))
	assert.True(t, ContainsSuccessText("Resgate realizado com sucesso"))
	assert.True(t, ContainsSuccessText("Delivery SUCCESS"))
	assert.False(t, ContainsSuccessText("Ocurrió un error al procesar"))
	assert.False(t, ContainsSuccessText(""))
}
