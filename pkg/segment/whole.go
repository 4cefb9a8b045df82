package segment

import (
	"context"

	"pixelsort/internal/models"
	"pixelsort/internal/parallel"
	"pixelsort/pkg/random"
)

// shuffleTotal permutes the pixels of every row independently
type shuffleTotal struct {
	env Env
}

func (s *shuffleTotal) Reorder(ctx context.Context, buf *models.Buffer) (*models.Buffer, error) {
	out := buf.Clone()
	err := parallel.Rows(ctx, out.Height, s.env.Workers, func(y int) error {
		row := out.Rows[y]
		s.env.Streams.Stream(random.StageShuffle, y).Shuffle(len(row), func(i, j int) {
			row[i], row[j] = row[j], row[i]
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// shuffleAxis permutes whole rows, leaving each row intact
type shuffleAxis struct {
	env Env
}

func (s *shuffleAxis) Reorder(ctx context.Context, buf *models.Buffer) (*models.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := make([]int, buf.Height)
	for i := range order {
		order[i] = i
	}
	s.env.Streams.Stream(random.StageShuffle, -1).Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	out := &models.Buffer{Width: buf.Width, Height: buf.Height, Rows: make([][]models.Pixel, buf.Height)}
	for y, from := range order {
		out.Rows[y] = append([]models.Pixel(nil), buf.Rows[from]...)
	}
	return out, nil
}

// snap vanishes exactly half of the pixels, chosen without replacement
type snap struct {
	env Env
}

func (s *snap) Reorder(ctx context.Context, buf *models.Buffer) (*models.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := buf.Clone()
	total := buf.Width * buf.Height
	if total == 0 {
		return out, nil
	}

	chosen := s.env.Streams.Stream(random.StageSnap, 0).Sample(total/2, total)
	for _, i := range chosen {
		out.Rows[i/buf.Width][i%buf.Width] = models.Vanished
	}
	s.env.logf("Vanished %d of %d pixels", len(chosen), total)

	return out, nil
}
