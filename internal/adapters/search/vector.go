package search

import "github.com/yashbaviskar01/model-api/pkg/utils"

var cosineSimilarity = utils.CosineSimilarity
