package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name GameSource --dir ../usecase --output usecase --outpkg usecasemock --filename game_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name RunRepository --dir ../domain/syncstate --output domain/syncstate --outpkg syncstatemock --filename run_repository_mock.go
