package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "tham tu lung danh conan", Fold("Thám Tử Lừng Danh Conan"))
	assert.Equal(t, "du anh cua doc nhan", Fold("Dư Ảnh Của Độc Nhãn"))
	assert.Equal(t, "dao dien", Fold("Đạo Diễn"))
	assert.Equal(t, "plain ascii", Fold("  Plain ASCII  "))
	assert.Equal(t, "", Fold(""))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "tham-tu-lung-danh-conan", Slugify("Thám Tử Lừng Danh Conan"))
	assert.Equal(t, "conan-movie-28", Slugify("Conan: Movie #28!"))
	assert.Equal(t, "a-b", Slugify("--a---b--"))
	assert.Equal(t, "", Slugify("!!!"))
}
