package handler

import (
	"strconv"
	"time"

	"github.com/msomdec/image-gallery/internal/domain"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// ImageDTO is the JSON representation of an image record.
type ImageDTO struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	StoragePath string `json:"storagePath"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	UploadedAt  string `json:"uploadedAt"`
	Liked       bool   `json:"liked"`
	URL         string `json:"url"`
}

func toImageDTO(img *domain.Image, liked bool) ImageDTO {
	return ImageDTO{
		ID:          img.ID,
		Filename:    img.Filename,
		StoragePath: img.StoragePath,
		ContentType: img.ContentType,
		Size:        img.Size,
		UploadedAt:  img.UploadedAt.Format(time.RFC3339Nano),
		Liked:       liked,
		URL:         "/image/" + strconv.FormatInt(img.ID, 10) + "/file",
	}
}

// toImageDTOs annotates each image with whether its id is in liked.
func toImageDTOs(images []domain.Image, liked map[int64]bool) []ImageDTO {
	dtos := make([]ImageDTO, len(images))
	for i := range images {
		dtos[i] = toImageDTO(&images[i], liked[images[i].ID])
	}
	return dtos
}
